package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/uptrixio/platformer/internal/config"
	"github.com/uptrixio/platformer/internal/meshing"
	"github.com/uptrixio/platformer/internal/noise"
	"github.com/uptrixio/platformer/internal/profiling"
	"github.com/uptrixio/platformer/internal/protocol"
	"github.com/uptrixio/platformer/internal/storage"
	"github.com/uptrixio/platformer/internal/world"
)

const outQueue = 1024

// session drives one World from a single goroutine. It is the world's mesh
// consumer: every attach and detach is forwarded to the client.
type session struct {
	id    string
	name  string
	store storage.Store
	world *world.World
	log   *slog.Logger

	conn *websocket.Conn
	in   chan any
	out  chan []byte
	ctx  context.Context

	pos        mgl32.Vec3
	yaw, pitch float32
}

func (s *Server) openSession(ctx context.Context, hello *protocol.HelloMsg) (*session, error) {
	meta, err := s.store.World(ctx, hello.World)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, &protocol.Error{Code: protocol.ErrWorldNotFound, Message: "no world named " + hello.World}
	}
	if err != nil {
		return nil, err
	}

	sess := &session{
		id:    uuid.NewString(),
		name:  meta.Name,
		store: s.store,
		in:    make(chan any, 64),
		out:   make(chan []byte, outQueue),
		ctx:   ctx,
	}
	sess.log = s.log.With("session", sess.id, "world", meta.Name)
	sess.world = world.New(world.Options{
		Name:     meta.Name,
		Seed:     noise.ParseSeed(meta.Seed),
		Settings: s.settings,
		Store:    s.store,
		Consumer: sess,
		Logger:   s.log.With("session", sess.id),
	})
	if hello.RenderDistance > 0 {
		sess.world.SetRenderDistance(hello.RenderDistance)
	}
	sess.world.OnProgress(func(f float64) {
		sess.send(sess.ctx, protocol.ProgressMsg{Type: protocol.TypeProgress, Fraction: f})
	})
	generated := meta.Generated
	sess.world.OnReady(func() {
		sess.send(sess.ctx, protocol.ReadyMsg{Type: protocol.TypeReady})
		if generated {
			return
		}
		if err := s.store.MarkGenerated(context.Background(), meta.Name); err != nil {
			sess.log.Warn("mark generated", "err", err)
		}
	})

	if p, err := s.store.LoadPlayer(ctx, meta.Name); err == nil {
		sess.pos, sess.yaw, sess.pitch = p.Position, p.Yaw, p.Pitch
	} else {
		sess.pos = sess.world.FindSpawn()
	}

	sess.send(ctx, protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       sess.id,
		World:           meta.Name,
		Seed:            meta.Seed,
		ChunkSize:       config.ChunkSize,
		MinY:            config.MinY,
		Height:          config.ChunkHeight,
		Spawn:           sess.pos,
		Yaw:             sess.yaw,
		Pitch:           sess.pitch,
	})
	sess.log.Info("session opened")
	return sess, nil
}

// run is the game loop. It returns when ctx is cancelled, after saving.
func (s *session) run(ctx context.Context, tick time.Duration) {
	s.ctx = ctx
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	s.step()
	for {
		select {
		case <-ctx.Done():
			s.close()
			return
		case msg := <-s.in:
			s.handle(msg)
		case <-ticker.C:
			s.step()
		}
	}
}

func (s *session) step() {
	profiling.ResetFrame()
	s.world.Update(s.pos)
}

func (s *session) handle(msg any) {
	switch m := msg.(type) {
	case *protocol.TickMsg:
		s.pos = m.Pos
		s.world.Update(s.pos)
	case *protocol.InteractMsg:
		s.interact(m)
	case *protocol.HelloMsg:
		s.send(s.ctx, (&protocol.Error{Code: protocol.ErrProtoBadRequest, Message: "already joined"}).Msg())
	}
}

func (s *session) interact(m *protocol.InteractMsg) {
	eye, dir := mgl32.Vec3(m.Eye), mgl32.Vec3(m.Dir)
	var (
		cell [3]int
		ok   bool
		bt   = world.BlockTypeAir
	)
	switch m.Action {
	case protocol.ActionBreak:
		cell, ok = s.world.Break(eye, dir)
	case protocol.ActionPlace:
		t, err := world.ParseBlockType(m.Block)
		if err != nil || t == world.BlockTypeAir {
			s.send(s.ctx, (&protocol.Error{Code: protocol.ErrProtoBadRequest, Message: "bad block " + m.Block}).Msg())
			return
		}
		bt = t
		cell, ok = s.world.Place(eye, dir, t)
	}
	if !ok {
		s.send(s.ctx, (&protocol.Error{Code: protocol.ErrInvalidTarget, Message: "nothing to " + m.Action}).Msg())
		return
	}
	s.send(s.ctx, protocol.BlockMsg{Type: protocol.TypeBlock, Pos: cell, Block: bt.String()})
}

func (s *session) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.world.Close(ctx); err != nil {
		s.log.Error("save world", "err", err)
	}
	p := storage.PlayerState{Position: s.pos, Yaw: s.yaw, Pitch: s.pitch}
	if err := s.store.SavePlayer(ctx, s.name, p); err != nil {
		s.log.Error("save player", "err", err)
	}
	s.log.Info("session closed")
}

// Attach implements world.MeshConsumer.
func (s *session) Attach(coord world.ChunkCoord, m *meshing.Mesh) {
	s.send(s.ctx, attachMsg(coord, m))
}

// Detach implements world.MeshConsumer.
func (s *session) Detach(coord world.ChunkCoord) {
	s.send(s.ctx, protocol.DetachMsg{Type: protocol.TypeDetach, CX: coord.X, CZ: coord.Z})
}

func (s *session) send(ctx context.Context, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		s.log.Error("marshal", "err", err)
		return
	}
	select {
	case s.out <- b:
	case <-ctx.Done():
	}
}

func attachMsg(coord world.ChunkCoord, m *meshing.Mesh) protocol.AttachMsg {
	x, y, z := coord.Origin()
	msg := protocol.AttachMsg{
		Type:   protocol.TypeAttach,
		CX:     coord.X,
		CZ:     coord.Z,
		Origin: [3]int{x, y, z},
	}
	if m == nil {
		return msg
	}
	msg.Surfaces = make([]protocol.SurfaceMsg, 0, len(m.Surfaces))
	for _, surf := range m.Surfaces {
		sm := protocol.SurfaceMsg{
			Block: world.BlockType(surf.Type).String(),
			Boxes: make([][6]int, len(surf.Boxes)),
		}
		for i, b := range surf.Boxes {
			sm.Boxes[i] = [6]int{b.Min[0], b.Min[1], b.Min[2], b.Size[0], b.Size[1], b.Size[2]}
		}
		msg.Surfaces = append(msg.Surfaces, sm)
	}
	return msg
}
