package call

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/cloudwego/eino/compose"
	contractx "github.com/tanpawarit/Chative-Last-Mile-Voice-Agent/agent/contract"
	dialoguex "github.com/tanpawarit/Chative-Last-Mile-Voice-Agent/agent/dialogue"
)

const (
	msgAreYouThere = "Hello, can you hear me?"
	msgGiveUp      = "It seems now is not a good time. We will try again later."
)

const (
	nodeListen  = "listen"
	nodeRespond = "respond"
	nodeSilence = "silence"
	nodeSpeak   = "speak"
)

// turnState carries one call across turn graph invocations.
type turnState struct {
	engine *dialoguex.Engine

	utterance     string
	reply         string
	silentStrikes int
	userTurns     int
	hungUp        bool
	abandoned     bool
}

func (st *turnState) done() bool {
	return st.hungUp || st.abandoned || st.engine.State().Terminal()
}

// compileTurnGraph builds listen -> (respond | silence) -> speak. Each Invoke
// runs exactly one conversational turn.
func (s *Session) compileTurnGraph(ctx context.Context) (compose.Runnable[*turnState, *turnState], error) {
	graph := compose.NewGraph[*turnState, *turnState]()

	if err := graph.AddLambdaNode(nodeListen, compose.InvokableLambda(s.listen)); err != nil {
		return nil, fmt.Errorf("add listen node: %w", err)
	}
	if err := graph.AddLambdaNode(nodeRespond, compose.InvokableLambda(s.respond)); err != nil {
		return nil, fmt.Errorf("add respond node: %w", err)
	}
	if err := graph.AddLambdaNode(nodeSilence, compose.InvokableLambda(s.silence)); err != nil {
		return nil, fmt.Errorf("add silence node: %w", err)
	}
	if err := graph.AddLambdaNode(nodeSpeak, compose.InvokableLambda(s.speakTurn)); err != nil {
		return nil, fmt.Errorf("add speak node: %w", err)
	}

	branch := compose.NewGraphBranch(
		func(ctx context.Context, st *turnState) (string, error) {
			if st == nil {
				return "", fmt.Errorf("%w: turn state is nil", contractx.ErrValidation)
			}
			switch {
			case st.hungUp:
				return nodeSpeak, nil
			case st.utterance == "":
				return nodeSilence, nil
			default:
				return nodeRespond, nil
			}
		},
		map[string]bool{
			nodeRespond: true,
			nodeSilence: true,
			nodeSpeak:   true,
		},
	)

	if err := graph.AddEdge(compose.START, nodeListen); err != nil {
		return nil, fmt.Errorf("add edge start->listen: %w", err)
	}
	if err := graph.AddBranch(nodeListen, branch); err != nil {
		return nil, fmt.Errorf("add listen branch: %w", err)
	}
	if err := graph.AddEdge(nodeRespond, nodeSpeak); err != nil {
		return nil, fmt.Errorf("add edge respond->speak: %w", err)
	}
	if err := graph.AddEdge(nodeSilence, nodeSpeak); err != nil {
		return nil, fmt.Errorf("add edge silence->speak: %w", err)
	}
	if err := graph.AddEdge(nodeSpeak, compose.END); err != nil {
		return nil, fmt.Errorf("add edge speak->end: %w", err)
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("call.turn_graph"))
	if err != nil {
		return nil, fmt.Errorf("compile turn graph: %w", err)
	}
	return runner, nil
}

func (s *Session) listen(ctx context.Context, st *turnState) (*turnState, error) {
	st.utterance = ""
	st.reply = ""

	audio, err := s.devices.Recorder.Record(ctx)
	if errors.Is(err, io.EOF) {
		st.hungUp = true
		return st, nil
	}
	if err != nil {
		return nil, fmt.Errorf("record: %w", err)
	}

	text, err := s.devices.Transcriber.Transcribe(ctx, audio)
	if err != nil {
		return nil, fmt.Errorf("transcribe: %w", err)
	}
	st.utterance = strings.TrimSpace(text)
	return st, nil
}

func (s *Session) respond(ctx context.Context, st *turnState) (*turnState, error) {
	st.silentStrikes = 0
	st.userTurns++

	s.logger.Info().Str("utterance", st.utterance).Msg("call: user turn")
	reply, err := st.engine.HandleInput(ctx, st.utterance)
	if err != nil {
		return nil, err
	}
	st.reply = reply
	return st, nil
}

func (s *Session) silence(_ context.Context, st *turnState) (*turnState, error) {
	st.silentStrikes++
	s.logger.Info().Int("strike", st.silentStrikes).Int("max", s.maxSilentTurns).Msg("call: no response")

	if st.silentStrikes >= s.maxSilentTurns {
		st.abandoned = true
		st.reply = msgGiveUp
	} else {
		st.reply = msgAreYouThere
	}

	if err := s.memory.AddMessage(contractx.RoleAgent, st.reply); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *Session) speakTurn(ctx context.Context, st *turnState) (*turnState, error) {
	if st.reply == "" {
		return st, nil
	}
	if err := s.speak(ctx, st.reply); err != nil {
		return nil, err
	}
	return st, nil
}
