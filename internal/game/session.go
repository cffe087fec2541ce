package game

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/vladimirvolkov/cannonball/internal/ws"
)

// Client is the transport side of a session.
type Client interface {
	Send(msg ws.Message)
	ReadLoop(ctx context.Context) <-chan ws.Message
}

// pendingInput collects client actions between ticks.
type pendingInput struct {
	aim    int
	launch bool
	reset  bool
}

// Session runs one player's episodes back to back. The game loop goroutine
// owns state; the read loop only touches input under inputMu.
type Session struct {
	id     string
	name   string
	client Client
	sim    *Simulator

	state     State
	episode   int
	hits      int
	restTimer float64

	input   pendingInput
	inputMu sync.Mutex

	cancel context.CancelFunc
	done   chan struct{}
}

func NewSession(sim *Simulator, client Client, id, name string) *Session {
	return &Session{
		id:     id,
		name:   name,
		client: client,
		sim:    sim,
		state:  sim.NewEpisode(),
		done:   make(chan struct{}),
	}
}

func (s *Session) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	msg, err := ws.NewMessage(ws.MsgSessionStart, 0, ws.SessionStartPayload{
		SessionID: s.id,
		Name:      s.name,
		Scene:     s.sim.Scene(),
	})
	if err != nil {
		log.Printf("session %s: encode start: %v", s.id, err)
	} else {
		s.client.Send(msg)
	}

	go s.readLoop(ctx)
	go func() {
		s.gameLoop(ctx)
		close(s.done)
	}()
	log.Printf("session %s [%s] started", s.id, s.name)
}

// Done returns a channel that closes when the session's game loop exits.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *Session) readLoop(ctx context.Context) {
	msgs := s.client.ReadLoop(ctx)
	for {
		select {
		case msg, ok := <-msgs:
			if !ok {
				log.Printf("session %s: client disconnected", s.id)
				s.cancel()
				return
			}
			s.handleMessage(msg)
		case <-ctx.Done():
			return
		}
	}
}

func (s *Session) handleMessage(msg ws.Message) {
	switch msg.Type {
	case ws.MsgAim:
		p, err := ws.DecodePayload[ws.AimPayload](msg)
		if err != nil {
			return
		}
		dir := int(p.Dir)
		if dir > 1 {
			dir = 1
		}
		if dir < -1 {
			dir = -1
		}
		s.inputMu.Lock()
		s.input.aim += dir
		s.inputMu.Unlock()

	case ws.MsgLaunch:
		s.inputMu.Lock()
		s.input.launch = true
		s.inputMu.Unlock()

	case ws.MsgReset:
		s.inputMu.Lock()
		s.input.reset = true
		s.inputMu.Unlock()

	case ws.MsgPing:
		ping, err := ws.DecodePayload[ws.PingPayload](msg)
		if err != nil {
			return
		}
		pong, err := ws.NewMessage(ws.MsgPong, 0, ws.PongPayload{
			ClientTime: ping.ClientTime,
			ServerTime: uint64(time.Now().UnixMilli()),
		})
		if err != nil {
			log.Printf("session %s: failed to encode pong: %v", s.id, err)
			return
		}
		s.client.Send(pong)
	}
}

func (s *Session) gameLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Second / TickRate)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.tick()
		case <-ctx.Done():
			return
		}
	}
}

func (s *Session) tick() {
	s.inputMu.Lock()
	in := s.input
	s.input = pendingInput{}
	s.inputMu.Unlock()

	if in.reset {
		s.newEpisode()
	}
	if in.aim != 0 {
		s.sim.Aim(&s.state, in.aim)
	}
	if in.launch {
		s.sim.Launch(&s.state)
	}

	if s.state.Phase == PhaseResting {
		s.restTimer -= 1.0 / TickRate
		if s.restTimer <= 0 {
			s.newEpisode()
		}
	} else {
		out := s.sim.Tick(&s.state, s.sim.Params().TimeStep)
		s.report(out)
	}

	s.broadcastState()
}

func (s *Session) report(out Outcome) {
	st := &s.state
	for _, i := range out.Hits {
		s.hits++
		msg, err := ws.NewMessage(ws.MsgHit, st.Tick, ws.HitPayload{
			Target:     st.Targets[i].ID,
			ScoreDelta: s.sim.Params().HitScore,
			Score:      st.Score,
		})
		if err == nil {
			s.client.Send(msg)
		}
	}

	if out.Rested {
		s.restTimer = RestPauseSecs
		log.Printf("EPISODE: session %s episode %d over, score=%d hits=%d ticks=%d",
			s.id, s.episode, st.Score, s.hits, st.Tick)
		msg, err := ws.NewMessage(ws.MsgEpisodeOver, st.Tick, ws.EpisodeOverPayload{
			Episode: s.episode,
			Score:   st.Score,
			Hits:    s.hits,
			Ticks:   int(st.Tick),
		})
		if err == nil {
			s.client.Send(msg)
		}
	}
}

func (s *Session) newEpisode() {
	s.state = s.sim.NewEpisode()
	s.episode++
	s.hits = 0
	s.restTimer = 0
}

func (s *Session) broadcastState() {
	msg, err := ws.NewMessage(ws.MsgState, s.state.Tick, s.sim.Snapshot(&s.state))
	if err != nil {
		log.Printf("session %s: failed to encode state: %v", s.id, err)
		return
	}
	s.client.Send(msg)
}
