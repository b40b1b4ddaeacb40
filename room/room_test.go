package room

import (
	"testing"

	"github.com/wfunc/gameclient/models"
)

func testListing() []models.RoomSummary {
	return []models.RoomSummary{
		{RoomID: "r1", Name: "Running", Status: models.StatusRunning, Players: 2, Capacity: 6},
		{RoomID: "r2", Name: "Full", Status: models.StatusLobby, Players: 4, Capacity: 4},
		{RoomID: "r3", Name: "Open", Status: models.StatusLobby, Players: 1, Capacity: 6},
		{RoomID: "r4", Name: "Also open", Status: models.StatusLobby, Players: 0, Capacity: 6},
	}
}

func TestDirectory_ReplaceAndGet(t *testing.T) {
	dir := NewDirectory()
	dir.Replace(testListing())

	if dir.Len() != 4 {
		t.Fatalf("Expected 4 rooms, got %d", dir.Len())
	}

	room, exists := dir.Get("r3")
	if !exists {
		t.Fatal("Get should find r3")
	}
	if room.Name != "Open" {
		t.Errorf("Expected room name Open, got %s", room.Name)
	}

	list := dir.List()
	if list[0].RoomID != "r1" || list[3].RoomID != "r4" {
		t.Errorf("List should keep server order, got %v", list)
	}
}

func TestDirectory_ReplaceDropsOldRooms(t *testing.T) {
	dir := NewDirectory()
	dir.Replace(testListing())
	dir.Replace([]models.RoomSummary{{RoomID: "r9", Status: models.StatusLobby, Capacity: 2}, {Name: "no id"}})

	if _, exists := dir.Get("r1"); exists {
		t.Error("Replace should drop rooms missing from the new listing")
	}
	if dir.Len() != 1 {
		t.Errorf("Expected 1 room after replace, got %d", dir.Len())
	}
}

func TestDirectory_FindAvailable(t *testing.T) {
	dir := NewDirectory()

	if _, ok := dir.FindAvailable(); ok {
		t.Error("Empty directory should have no available room")
	}

	dir.Replace(testListing())
	room, ok := dir.FindAvailable()
	if !ok {
		t.Fatal("Expected an available room")
	}
	if room.RoomID != "r3" {
		t.Errorf("Expected first open lobby room r3, got %s", room.RoomID)
	}
}
