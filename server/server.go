package server

import (
	"encoding/json"
	"net/http"
	"net/rpc"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/wfunc/durak/broadcast"
	"github.com/wfunc/durak/card"
	"github.com/wfunc/durak/logger"
	"github.com/wfunc/durak/models"
	"github.com/wfunc/durak/monitor"
	"github.com/wfunc/durak/network"
	"github.com/wfunc/durak/persistence"
	"github.com/wfunc/durak/room"
	durak_rpc "github.com/wfunc/durak/rpc"
	"github.com/wfunc/durak/services"
	"github.com/wfunc/durak/session"
	"github.com/wfunc/durak/timer"
)

const sweepInterval = time.Minute

type GameServer struct {
	addr           string
	upgrader       websocket.Upgrader
	roomManager    *room.Manager
	sessionManager *session.Manager
	playerService  *services.PlayerService
	broadcaster    broadcast.Broadcaster
	rpcServer      *durak_rpc.Server
	monitor        *monitor.Monitor
	timers         *timer.Manager
	shutdownChan   chan struct{}
}

func NewGameServer(addr, rpcAddr, metricsAddr string, db persistence.Database) *GameServer {
	s := &GameServer{
		addr:           addr,
		roomManager:    room.NewManager(db, nil),
		sessionManager: session.NewManager(),
		monitor:        monitor.NewMonitor("durak"),
		timers:         timer.NewManager(),
		shutdownChan:   make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 允许所有跨域请求
			},
		},
	}
	if db != nil {
		s.playerService = services.NewPlayerService(db)
	}

	// 初始化广播器
	s.broadcaster = broadcast.NewRoomBroadcaster(s.sessionManager)

	// 初始化RPC服务器
	rpcServer, err := durak_rpc.NewServer(rpcAddr)
	if err != nil {
		logger.Log.Fatalf("Failed to create RPC server: %v", err)
	}
	s.rpcServer = rpcServer

	// 注册RPC服务
	rpc.Register(durak_rpc.NewGameService(s.roomManager))

	s.monitor.StartServer(metricsAddr)

	// 定期清理已结束的房间
	s.timers.AddTimer(sweepInterval, sweepInterval, func() {
		if removed := s.roomManager.SweepFinished(); removed > 0 {
			logger.Log.Infof("Swept %d finished rooms", removed)
		}
		s.monitor.SetActiveRooms(s.roomManager.ActiveRoomCount())
	})

	return s
}

func (s *GameServer) Start() error {
	go s.rpcServer.Start()

	http.HandleFunc("/ws", s.handleWebSocket)
	logger.Log.Infof("Game server listening on %s", s.addr)
	return http.ListenAndServe(s.addr, nil)
}

func (s *GameServer) Shutdown() {
	close(s.shutdownChan)
	s.rpcServer.Stop()
	s.timers.Stop()
}

func (s *GameServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Infof("Failed to upgrade connection: %v", err)
		return
	}
	s.handleConnection(conn)
}

func (s *GameServer) handleConnection(conn *websocket.Conn) {
	wsConn := network.NewWSConnection(conn)
	sess := session.NewSession(uuid.New().String(), wsConn)
	s.sessionManager.Add(sess)
	s.monitor.IncOnlinePlayers()

	logger.Log.Infof("New connection from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())

	defer func() {
		logger.Log.Infof("Connection closed from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())
		s.sessionManager.Remove(sess.GetID())
		s.monitor.DecOnlinePlayers()
		// The room stays alive; the player resumes it with a find_room
		// request on the next connection.
		wsConn.Close()
	}()

	for {
		select {
		case <-s.shutdownChan:
			return
		default:
			packet, err := wsConn.ReadPacket()
			if err != nil {
				return
			}
			s.handlePacket(sess, packet)
		}
	}
}

func (s *GameServer) handlePacket(sess *session.Session, packet *network.Packet) {
	if packet.MsgID == network.MsgTypeHeartbeat {
		sess.Touch()
		return
	}
	if packet.MsgID == network.MsgTypeIdentify {
		s.handleIdentify(sess, packet)
		return
	}
	if sess.User() == 0 {
		s.sendError(sess, packet.MsgID, "identify first")
		return
	}

	switch packet.MsgID {
	case network.MsgTypeCreateRoom:
		s.handleCreateRoom(sess, packet)
	case network.MsgTypeJoinRoom:
		s.handleJoinRoom(sess, packet)
	case network.MsgTypeLeaveRoom:
		s.handleLeaveRoom(sess, packet)
	case network.MsgTypeListRooms:
		s.handleListRooms(sess)
	case network.MsgTypeGetRoom:
		s.handleGetRoom(sess, packet)
	case network.MsgTypeFindRoom:
		s.handleFindRoom(sess)
	case network.MsgTypeMakeMove:
		s.handleMakeMove(sess, packet)
	case network.MsgTypeFinishMove:
		s.handleFinishMove(sess, packet)
	default:
		logger.Log.Infof("Unknown message type: %d", packet.MsgID)
	}
}

// handleIdentify binds the externally resolved player id to the session.
// Authentication itself happens upstream; the gateway only consumes the id.
func (s *GameServer) handleIdentify(sess *session.Session, packet *network.Packet) {
	var req struct {
		UserID int64 `json:"user_id"`
	}
	if err := json.Unmarshal(packet.Data, &req); err != nil || req.UserID == 0 {
		s.sendError(sess, packet.MsgID, "invalid identify payload")
		return
	}
	sess.SetUser(req.UserID)

	resp := map[string]interface{}{"user_id": req.UserID}
	if snap := s.roomManager.FindActiveRoomForPlayer(req.UserID); snap != nil {
		sess.RoomID = snap.ID
		resp["room_id"] = snap.ID
	}
	data, _ := json.Marshal(resp)
	sess.Send(network.MsgTypeIdentify, data)
}

func (s *GameServer) handleCreateRoom(sess *session.Session, packet *network.Packet) {
	var req struct {
		Trump string `json:"trump"`
	}
	if len(packet.Data) > 0 {
		if err := json.Unmarshal(packet.Data, &req); err != nil {
			s.sendError(sess, packet.MsgID, "invalid payload")
			return
		}
	}

	var trump *card.Suit
	if req.Trump != "" {
		t, err := card.ParseSuit(req.Trump)
		if err != nil {
			s.sendError(sess, packet.MsgID, err.Error())
			return
		}
		trump = &t
	}

	snap, err := s.roomManager.CreateRoom(sess.User(), trump)
	if err != nil {
		s.sendError(sess, packet.MsgID, err.Error())
		return
	}
	sess.RoomID = snap.ID
	logger.Log.Infof("Player %d created room %s", sess.User(), snap.ID)
	s.afterTransition(snap, time.Now(), false)
}

func (s *GameServer) handleJoinRoom(sess *session.Session, packet *network.Packet) {
	roomID, ok := s.roomIDFrom(sess, packet)
	if !ok {
		return
	}
	snap, err := s.roomManager.JoinRoom(sess.User(), roomID)
	if err != nil {
		s.sendError(sess, packet.MsgID, err.Error())
		return
	}
	sess.RoomID = snap.ID
	logger.Log.Infof("Player %d joined room %s", sess.User(), snap.ID)
	s.afterTransition(snap, time.Now(), false)
}

func (s *GameServer) handleLeaveRoom(sess *session.Session, packet *network.Packet) {
	roomID, ok := s.roomIDFrom(sess, packet)
	if !ok {
		return
	}
	snap, err := s.roomManager.LeaveRoom(sess.User(), roomID)
	if err != nil {
		s.sendError(sess, packet.MsgID, err.Error())
		return
	}
	sess.RoomID = ""
	s.afterTransition(snap, time.Now(), true)
}

func (s *GameServer) handleListRooms(sess *session.Session) {
	rooms := s.roomManager.ListJoinable()
	data, _ := json.Marshal(map[string]interface{}{"rooms": rooms})
	sess.Send(network.MsgTypeListRooms, data)
}

func (s *GameServer) handleGetRoom(sess *session.Session, packet *network.Packet) {
	roomID, ok := s.roomIDFrom(sess, packet)
	if !ok {
		return
	}
	snap, err := s.roomManager.GetRoom(sess.User(), roomID)
	if err != nil {
		s.sendError(sess, packet.MsgID, err.Error())
		return
	}
	data, _ := json.Marshal(snap)
	sess.Send(network.MsgTypeRoomState, data)
}

func (s *GameServer) handleFindRoom(sess *session.Session) {
	snap := s.roomManager.FindActiveRoomForPlayer(sess.User())
	if snap == nil {
		sess.Send(network.MsgTypeFindRoom, []byte(`{}`))
		return
	}
	sess.RoomID = snap.ID
	data, _ := json.Marshal(snap)
	sess.Send(network.MsgTypeRoomState, data)
}

func (s *GameServer) handleMakeMove(sess *session.Session, packet *network.Packet) {
	var req struct {
		RoomID string `json:"room_id"`
		Card   string `json:"card"`
	}
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		s.sendError(sess, packet.MsgID, "invalid payload")
		return
	}
	if req.RoomID == "" {
		req.RoomID = sess.RoomID
	}

	c, err := card.Parse(req.Card)
	if err != nil {
		s.sendError(sess, packet.MsgID, err.Error())
		return
	}

	started := time.Now()
	snap, err := s.roomManager.MakeMove(sess.User(), req.RoomID, c)
	if err != nil {
		s.sendError(sess, packet.MsgID, err.Error())
		return
	}
	s.afterTransition(snap, started, false)
}

func (s *GameServer) handleFinishMove(sess *session.Session, packet *network.Packet) {
	roomID, ok := s.roomIDFrom(sess, packet)
	if !ok {
		return
	}
	started := time.Now()
	snap, err := s.roomManager.FinishMove(sess.User(), roomID)
	if err != nil {
		s.sendError(sess, packet.MsgID, err.Error())
		return
	}
	s.afterTransition(snap, started, false)
}

// afterTransition fans the committed snapshot out to both players, updates
// the metrics, and records the game once it reaches a terminal state.
func (s *GameServer) afterTransition(snap *models.RoomSnapshot, started time.Time, abandoned bool) {
	s.broadcaster.BroadcastRoomState(snap)
	s.monitor.IncMoves()
	s.monitor.ObserveMoveLatency(time.Since(started))
	s.monitor.SetActiveRooms(s.roomManager.ActiveRoomCount())

	if snap.Finished {
		s.monitor.IncGamesFinished()
		if s.playerService != nil {
			if err := s.playerService.RecordFinishedRoom(snap, abandoned); err != nil {
				logger.Log.Errorf("Failed to record game for room %s: %v", snap.ID, err)
			}
		}
	}
}

// roomIDFrom reads an optional {"room_id": ...} payload, defaulting to the
// session's current room.
func (s *GameServer) roomIDFrom(sess *session.Session, packet *network.Packet) (string, bool) {
	var req struct {
		RoomID string `json:"room_id"`
	}
	if len(packet.Data) > 0 {
		if err := json.Unmarshal(packet.Data, &req); err != nil {
			s.sendError(sess, packet.MsgID, "invalid payload")
			return "", false
		}
	}
	if req.RoomID == "" {
		req.RoomID = sess.RoomID
	}
	if req.RoomID == "" {
		s.sendError(sess, packet.MsgID, room.ErrRoomNotFound.Error())
		return "", false
	}
	return req.RoomID, true
}

func (s *GameServer) sendError(sess *session.Session, op uint16, msg string) {
	data, _ := json.Marshal(map[string]interface{}{"op": op, "error": msg})
	sess.Send(network.MsgTypeError, data)
}
