// Package identity keeps the credentials a client presents to the game server: a durable device
// token, the account session token, the display name and the last joined room.
//
// Every value is cached in memory. Writes to the backing database are best effort; when the
// database is missing or failing the store keeps working from memory alone.
package identity

import (
	"errors"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/wfunc/gameclient/logger"
	"github.com/wfunc/gameclient/persistence"
	"golang.org/x/text/unicode/norm"
)

const (
	keyDeviceToken  = "device_token"
	keySessionToken = "session_token"
	keyDisplayName  = "display_name"
	keyLastRoom     = "last_room"

	// MaxDisplayName matches the server-side truncation.
	MaxDisplayName = 24
)

type Store struct {
	db persistence.Database

	mutex        sync.RWMutex
	deviceToken  string
	sessionToken string
	accountName  string
	displayName  string
	lastRoom     string
}

// NewStore loads whatever the database already holds. db may be nil.
func NewStore(db persistence.Database) *Store {
	s := &Store{db: db}
	s.sessionToken = s.load(keySessionToken)
	s.displayName = s.load(keyDisplayName)
	s.lastRoom = s.load(keyLastRoom)
	return s
}

func newDeviceToken() string {
	return "token-" + uuid.New().String()
}

// DeviceToken returns the durable device token, creating and persisting one on first use.
func (s *Store) DeviceToken() string {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.deviceToken != "" {
		return s.deviceToken
	}
	if stored := s.load(keyDeviceToken); stored != "" {
		s.deviceToken = stored
		return stored
	}
	s.deviceToken = newDeviceToken()
	s.save(keyDeviceToken, s.deviceToken)
	return s.deviceToken
}

// SetDeviceToken replaces the device token with the seat token handed out by the server.
func (s *Store) SetDeviceToken(token string) {
	token = strings.TrimSpace(token)
	if token == "" {
		return
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.deviceToken = token
	s.save(keyDeviceToken, token)
}

func (s *Store) SessionToken() (string, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.sessionToken, s.sessionToken != ""
}

func (s *Store) AccountName() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.accountName
}

func (s *Store) SetSession(token, accountName string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.sessionToken = token
	s.accountName = accountName
	s.save(keySessionToken, token)
}

func (s *Store) ClearSession() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.sessionToken = ""
	s.accountName = ""
	s.remove(keySessionToken)
}

func (s *Store) DisplayName() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.displayName
}

// SetDisplayName stores the trimmed, NFC-normalised name clamped to MaxDisplayName runes.
func (s *Store) SetDisplayName(name string) {
	value := NormalizeName(name)
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.displayName = value
	s.save(keyDisplayName, value)
}

// NormalizeName trims surrounding space, normalises to NFC and clamps the length.
func NormalizeName(name string) string {
	value := norm.NFC.String(strings.TrimSpace(name))
	if utf8.RuneCountInString(value) > MaxDisplayName {
		runes := []rune(value)
		value = strings.TrimSpace(string(runes[:MaxDisplayName]))
	}
	return value
}

// LastRoom is the room the client was last seated in; it is sent as a rejoin hint.
func (s *Store) LastRoom() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.lastRoom
}

func (s *Store) SetLastRoom(roomID string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.lastRoom == roomID {
		return
	}
	s.lastRoom = roomID
	if roomID == "" {
		s.remove(keyLastRoom)
		return
	}
	s.save(keyLastRoom, roomID)
}

func (s *Store) load(key string) string {
	if s.db == nil {
		return ""
	}
	value, err := s.db.LoadSetting(key)
	if err != nil {
		if !errors.Is(err, persistence.ErrRecordNotFound) {
			logger.Log.Warnf("identity: cannot read %s, using memory: %v", key, err)
		}
		return ""
	}
	return value
}

func (s *Store) save(key, value string) {
	if s.db == nil {
		return
	}
	if err := s.db.SaveSetting(key, value); err != nil {
		logger.Log.Warnf("identity: cannot persist %s, keeping it in memory: %v", key, err)
	}
}

func (s *Store) remove(key string) {
	if s.db == nil {
		return
	}
	if err := s.db.DeleteSetting(key); err != nil {
		logger.Log.Warnf("identity: cannot delete %s: %v", key, err)
	}
}
