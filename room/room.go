// room/room.go
package room

import (
	"sync"

	"github.com/wfunc/gameclient/models"
)

// Directory 保存大厅最新的房间列表. Each lobby_rooms message replaces the whole listing.
type Directory struct {
	rooms map[string]models.RoomSummary
	order []string
	mutex sync.RWMutex
}

// NewDirectory 创建一个空的房间目录
func NewDirectory() *Directory {
	return &Directory{
		rooms: make(map[string]models.RoomSummary),
	}
}

// Replace swaps in a new listing, keeping the server's order. Entries without an id are skipped.
func (d *Directory) Replace(rooms []models.RoomSummary) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	d.rooms = make(map[string]models.RoomSummary, len(rooms))
	d.order = d.order[:0]
	for _, r := range rooms {
		if r.RoomID == "" {
			continue
		}
		if _, dup := d.rooms[r.RoomID]; !dup {
			d.order = append(d.order, r.RoomID)
		}
		d.rooms[r.RoomID] = r
	}
}

// Get 从目录中获取一个房间
func (d *Directory) Get(id string) (models.RoomSummary, bool) {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	r, exists := d.rooms[id]
	return r, exists
}

// List returns the listing in server order.
func (d *Directory) List() []models.RoomSummary {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	out := make([]models.RoomSummary, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, d.rooms[id])
	}
	return out
}

func (d *Directory) Len() int {
	d.mutex.RLock()
	defer d.mutex.RUnlock()
	return len(d.order)
}

// FindAvailable 查找第一个还在等待且有空位的房间
func (d *Directory) FindAvailable() (models.RoomSummary, bool) {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	for _, id := range d.order {
		r := d.rooms[id]
		if r.Players < r.Capacity && r.Status == models.StatusLobby {
			return r, true
		}
	}
	return models.RoomSummary{}, false
}
