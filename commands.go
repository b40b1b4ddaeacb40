package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/wfunc/gameclient/auth"
	"github.com/wfunc/gameclient/broadcast"
	"github.com/wfunc/gameclient/models"
	"github.com/wfunc/gameclient/session"
	"github.com/wfunc/gameclient/state"
)

var (
	errQuit         = errors.New("quit")
	errUnknown      = errors.New("unknown command, try help")
	errBadArguments = errors.New("bad arguments, try help")
)

const usage = `commands:
  login|register <user> <pass> [display]   logout
  rooms   create [name]   join <id>   quick   leave
  bot [name]   unbot <seat>   start
  card <i>   target <seat>   clear   submit
  defend <i>   confirm   pass
  state   help   quit`

// readCommands runs stdin lines against the session until quit, EOF or ctx ends.
func readCommands(ctx context.Context, sess *session.Session, hub *broadcast.Hub, in io.Reader, out io.Writer) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	fmt.Fprintln(out, usage)
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return errQuit
			}
			err := runCommand(ctx, sess, out, line)
			switch {
			case errors.Is(err, errQuit):
				return errQuit
			case err != nil:
				hub.Notify(broadcast.KindWarning, "%v", err)
			}
		}
	}
}

func runCommand(ctx context.Context, sess *session.Session, out io.Writer, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "quit", "exit":
		return errQuit
	case "help":
		fmt.Fprintln(out, usage)
		return nil
	case "login", "register":
		if len(args) < 2 {
			return errBadArguments
		}
		display := strings.Join(args[2:], " ")
		return sess.Authenticate(ctx, auth.Mode(cmd), args[0], args[1], display)
	case "logout":
		return sess.Logout(ctx)
	}

	return sess.Exec(ctx, func() error {
		lobby, cards, defense := sess.Lobby(), sess.Cards(), sess.Defense()
		switch cmd {
		case "rooms":
			return lobby.ListRooms()
		case "create":
			return lobby.CreateRoom(strings.Join(args, " "))
		case "join":
			if len(args) != 1 {
				return errBadArguments
			}
			return lobby.JoinRoom(args[0])
		case "quick":
			return lobby.QuickJoin()
		case "leave":
			return lobby.LeaveRoom()
		case "bot":
			return lobby.AddBot(strings.Join(args, " "))
		case "unbot":
			seat, err := intArg(args)
			if err != nil {
				return err
			}
			return lobby.RemoveBot(seat)
		case "start":
			return lobby.StartGame()
		case "card":
			index, err := intArg(args)
			if err != nil {
				return err
			}
			return cards.ToggleCard(index)
		case "target":
			seat, err := intArg(args)
			if err != nil {
				return err
			}
			return cards.SetTarget(seat)
		case "clear":
			cards.Clear()
			cards.ClearTarget()
			return nil
		case "submit":
			return cards.Submit()
		case "defend":
			index, err := intArg(args)
			if err != nil {
				return err
			}
			return defense.ToggleOption(index)
		case "confirm":
			return defense.Confirm()
		case "pass":
			return defense.Pass()
		case "state":
			renderState(out, sess)
			return nil
		}
		return errUnknown
	})
}

func intArg(args []string) (int, error) {
	if len(args) != 1 {
		return 0, errBadArguments
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, errBadArguments
	}
	return n, nil
}

// renderState prints the view. It runs on the session loop.
func renderState(out io.Writer, sess *session.Session) {
	store := sess.Store()
	fmt.Fprintf(out, "[%s] connection %s\n", store.ViewMode(), sess.Connection().State())

	if store.ViewMode() == state.ViewLobby {
		fmt.Fprintf(out, "%d rooms\n", store.Lobby().Len())
		for _, r := range store.Lobby().List() {
			fmt.Fprintf(out, "  %-12s %-20s %-9s %d/%d\n", r.RoomID, r.Name, r.Status, r.Players, r.Capacity)
		}
		return
	}

	fmt.Fprintf(out, "room %s %q status %s seat %d host %v\n",
		store.RoomID(), store.RoomName(), store.Status(), store.SeatIndex(), store.IsHost())
	if r := store.Room(); r != nil {
		for _, seat := range r.Seats {
			current, _ := store.Seat(seat.Index)
			fmt.Fprintf(out, "  %s\n", describeSeat(current, store))
		}
	}

	if game := store.Game(); game != nil {
		fmt.Fprintf(out, "round %d/%d turn %d\n", game.Round, game.MaxRounds, game.CurrentTurn)
	}
	if hand := store.Hand(); len(hand) > 0 {
		fmt.Fprintf(out, "identity %s hand:", store.Identity())
		for _, c := range hand {
			fmt.Fprintf(out, " [%d]%s", c.Index, c)
		}
		fmt.Fprintln(out)
	}

	cards := sess.Cards()
	if target, ok := cards.Target(); ok {
		fmt.Fprintf(out, "target %d (valid %v) cards %v submit %v\n",
			target, cards.TargetValid(), cards.SelectedIndices(), cards.CanSubmit())
	} else if sel := cards.SelectedIndices(); len(sel) > 0 {
		fmt.Fprintf(out, "cards %v, no target\n", sel)
	}
	if p := sess.Defense().Pending(); p != nil {
		fmt.Fprintf(out, "defense pending against %s, chosen %v of max %d\n",
			p.AttackerName, sess.Defense().Selected(), p.MaxSelectable)
	}
	if msg := store.PostGameMessage(); msg != "" {
		fmt.Fprintln(out, msg)
	}
	if log := store.Log(); len(log) > 0 {
		start := len(log) - 5
		if start < 0 {
			start = 0
		}
		for _, line := range log[start:] {
			fmt.Fprintf(out, "  | %s\n", line)
		}
	}
}

func describeSeat(seat models.Seat, store *state.Store) string {
	if !seat.Filled {
		return fmt.Sprintf("%d: (empty)", seat.Index)
	}
	var tags []string
	if seat.Index == store.HostSeat() {
		tags = append(tags, "host")
	}
	if seat.IsBot {
		tags = append(tags, "bot")
	}
	if seat.Index == store.SeatIndex() {
		tags = append(tags, "you")
	}
	if !seat.IsAlive() {
		tags = append(tags, "out")
	}
	if turn, ok := store.CurrentTurn(); ok && turn == seat.Index {
		tags = append(tags, "turn")
	}
	line := fmt.Sprintf("%d: %s", seat.Index, seat.Name)
	if len(tags) > 0 {
		line += " (" + strings.Join(tags, ", ") + ")"
	}
	return line
}

// printUpdates writes hub updates until ctx ends. View updates are silent; "state" renders them.
func printUpdates(ctx context.Context, out io.Writer, updates <-chan broadcast.Update) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case u, ok := <-updates:
			if !ok {
				return nil
			}
			if u.Kind == broadcast.KindView || u.Message == "" {
				continue
			}
			fmt.Fprintf(out, "%s [%s] %s\n", u.Time.Format("15:04:05"), u.Kind, u.Message)
		}
	}
}
