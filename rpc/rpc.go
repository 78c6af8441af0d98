package rpc

import (
	"net"
	"net/rpc"

	"github.com/wfunc/durak/card"
	"github.com/wfunc/durak/logger"
	"github.com/wfunc/durak/models"
	"github.com/wfunc/durak/room"
)

// Server manages the RPC listener.
type Server struct {
	listener net.Listener
	address  string
}

// NewServer creates a new RPC server.
func NewServer(addr string) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: listener,
		address:  addr,
	}, nil
}

// Start begins listening for RPC requests.
func (s *Server) Start() {
	logger.Log.Infof("RPC server listening on %s", s.address)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if _, ok := err.(*net.OpError); ok {
				logger.Log.Info("RPC server listener closed.")
				return
			}
			logger.Log.Errorf("RPC server accept error: %v", err)
			continue
		}
		go rpc.ServeConn(conn)
	}
}

// Stop closes the RPC listener.
func (s *Server) Stop() {
	if s.listener != nil {
		logger.Log.Info("Stopping RPC server.")
		s.listener.Close()
	}
}

// GameService exposes the engine operations over net/rpc. Callers supply a
// resolved player identity and plain data (room id, card token); every
// method returns the post-transition room snapshot or the precondition
// error verbatim.
type GameService struct {
	rooms *room.Manager
}

// NewGameService creates a new GameService.
func NewGameService(rooms *room.Manager) *GameService {
	return &GameService{rooms: rooms}
}

type CreateRoomArgs struct {
	PlayerID int64
	Trump    string // 1-character suit token; empty picks one at random
}

type JoinRoomArgs struct {
	PlayerID int64
	RoomID   string
}

type MoveArgs struct {
	PlayerID int64
	RoomID   string
	Card     string // 2-character card token
}

type RoomArgs struct {
	PlayerID int64
	RoomID   string
}

type PlayerArgs struct {
	PlayerID int64
}

type RoomReply struct {
	Room *models.RoomSnapshot
}

type RoomListReply struct {
	Rooms []*models.RoomSnapshot
}

func (gs *GameService) CreateRoom(args *CreateRoomArgs, reply *RoomReply) error {
	var trump *card.Suit
	if args.Trump != "" {
		t, err := card.ParseSuit(args.Trump)
		if err != nil {
			return err
		}
		trump = &t
	}

	snap, err := gs.rooms.CreateRoom(args.PlayerID, trump)
	if err != nil {
		return err
	}
	reply.Room = snap
	return nil
}

func (gs *GameService) JoinRoom(args *JoinRoomArgs, reply *RoomReply) error {
	snap, err := gs.rooms.JoinRoom(args.PlayerID, args.RoomID)
	if err != nil {
		return err
	}
	reply.Room = snap
	return nil
}

func (gs *GameService) MakeMove(args *MoveArgs, reply *RoomReply) error {
	c, err := card.Parse(args.Card)
	if err != nil {
		return err
	}
	snap, err := gs.rooms.MakeMove(args.PlayerID, args.RoomID, c)
	if err != nil {
		return err
	}
	reply.Room = snap
	return nil
}

func (gs *GameService) FinishMove(args *RoomArgs, reply *RoomReply) error {
	snap, err := gs.rooms.FinishMove(args.PlayerID, args.RoomID)
	if err != nil {
		return err
	}
	reply.Room = snap
	return nil
}

func (gs *GameService) LeaveRoom(args *RoomArgs, reply *RoomReply) error {
	snap, err := gs.rooms.LeaveRoom(args.PlayerID, args.RoomID)
	if err != nil {
		return err
	}
	reply.Room = snap
	return nil
}

func (gs *GameService) GetRoom(args *RoomArgs, reply *RoomReply) error {
	snap, err := gs.rooms.GetRoom(args.PlayerID, args.RoomID)
	if err != nil {
		return err
	}
	reply.Room = snap
	return nil
}

// FindActiveRoom resolves the caller's single unfinished room; Room stays
// nil when there is none.
func (gs *GameService) FindActiveRoom(args *PlayerArgs, reply *RoomReply) error {
	reply.Room = gs.rooms.FindActiveRoomForPlayer(args.PlayerID)
	return nil
}

func (gs *GameService) ListJoinable(args *PlayerArgs, reply *RoomListReply) error {
	reply.Rooms = gs.rooms.ListJoinable()
	return nil
}
