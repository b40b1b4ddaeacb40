package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/wfunc/gameclient/broadcast"
	"github.com/wfunc/gameclient/identity"
	"github.com/wfunc/gameclient/logger"
	"github.com/wfunc/gameclient/models"
	"github.com/wfunc/gameclient/monitor"
	"github.com/wfunc/gameclient/network"
	"github.com/wfunc/gameclient/selection"
	"github.com/wfunc/gameclient/state"
)

// Dispatcher applies inbound frames to the view state. Each frame is handled to completion
// before the next one.
type Dispatcher struct {
	store    *state.Store
	cards    *selection.Controller
	defense  *selection.Negotiator
	identity *identity.Store
	hub      broadcast.Broadcaster
	monitor  *monitor.Monitor
}

func NewDispatcher(store *state.Store, cards *selection.Controller, defense *selection.Negotiator,
	id *identity.Store, hub broadcast.Broadcaster, m *monitor.Monitor) *Dispatcher {
	return &Dispatcher{
		store:    store,
		cards:    cards,
		defense:  defense,
		identity: id,
		hub:      hub,
		monitor:  m,
	}
}

// Dispatch decodes and applies one frame. Malformed frames are logged and dropped.
func (d *Dispatcher) Dispatch(raw []byte) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			logger.Log.Errorf("dispatch panic: %v", r)
		}
	}()

	msg, err := network.Decode(raw)
	if err != nil {
		logger.Log.Warnf("dropping malformed message: %v", err)
		return
	}
	d.monitor.IncMessagesReceived(msg.MessageType())
	defer func() { d.monitor.ObserveDispatchLatency(time.Since(start)) }()

	switch m := msg.(type) {
	case network.Welcome:
		d.onWelcome(m)
	case network.LobbyRooms:
		d.store.SetLobbyRooms(m.Rooms)
		d.publish(broadcast.KindView, "")
	case network.RoomSnapshot:
		d.onRoomSnapshot(m)
	case network.PrivateState:
		d.store.ApplyPrivate(m.Snapshot)
		d.cards.OnPrivateSnapshot(m.Snapshot == nil)
		d.publish(broadcast.KindView, "")
	case network.DefensePromptMsg:
		d.onDefensePrompt(m)
	case network.TurnPrompt:
		if m.PlayerID == d.store.SeatIndex() {
			d.publish(broadcast.KindTurn, "your turn")
		} else {
			d.publish(broadcast.KindTurn, fmt.Sprintf("%s's turn", m.Name))
		}
	case network.LogLine:
		if m.Message == "" {
			return
		}
		d.store.AppendLog(m.Message)
		d.publish(broadcast.KindLog, m.Message)
	case network.Notice:
		if m.Type == network.MsgError {
			d.publish(broadcast.KindError, m.Message)
		} else {
			d.publish(broadcast.KindInfo, m.Message)
		}
	case network.Unknown:
		logger.Log.Debugf("ignoring message type %q", m.Type)
	}
}

func (d *Dispatcher) onWelcome(w network.Welcome) {
	change := d.store.ApplyWelcome(w)
	if w.Token != "" {
		d.identity.SetDeviceToken(w.Token)
	}
	if w.DisplayName != "" {
		d.identity.SetDisplayName(w.DisplayName)
	}
	d.identity.SetLastRoom(w.RoomID)

	if change.RoomChanged {
		d.defense.Cancel()
		d.cards.Clear()
		d.cards.ClearTarget()
	}
	logger.Log.Infof("welcome: room %q seat %d status %q", w.RoomID, w.SeatIndex, w.Status)
	d.publish(broadcast.KindView, "")
	if change.MatchEnded {
		d.publish(broadcast.KindMatchEnded, d.store.PostGameMessage())
	}
}

func (d *Dispatcher) onRoomSnapshot(snap network.RoomSnapshot) {
	change, applied := d.store.ApplyRoomSnapshot(snap)
	if !applied {
		logger.Log.Debugf("ignoring %s for room %q", snap.MessageType(), snap.Room.RoomID)
		return
	}
	d.publish(broadcast.KindView, "")
	if change.MatchEnded {
		d.publish(broadcast.KindMatchEnded, d.store.PostGameMessage())
	}
}

func (d *Dispatcher) onDefensePrompt(m network.DefensePromptMsg) {
	pending := d.defense.Pending() != nil
	d.defense.Prompt(m.Prompt)
	if m.Prompt == nil {
		if pending {
			d.publish(broadcast.KindDefense, "defense prompt withdrawn")
		}
		return
	}
	d.publish(broadcast.KindDefense, describePrompt(m.Prompt))
}

func (d *Dispatcher) publish(kind broadcast.Kind, message string) {
	d.hub.Publish(broadcast.Update{Kind: kind, Message: message})
}

func describePrompt(p *models.DefensePrompt) string {
	attack := make([]string, 0, len(p.AttackCards))
	for _, c := range p.AttackCards {
		attack = append(attack, c.String())
	}
	options := make([]string, 0, len(p.Options))
	for _, c := range p.Options {
		options = append(options, fmt.Sprintf("[%d] %s", c.Index, c))
	}
	return fmt.Sprintf("%s attacks with %s; defend with up to %d of: %s",
		p.AttackerName, strings.Join(attack, " "), p.MaxSelectable, strings.Join(options, ", "))
}
