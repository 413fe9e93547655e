// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/gemchat/internal/gemini"
	"github.com/jeranaias/gemchat/internal/model"
)

const testKey = "AIzaSessionTestKey"

const helloBody = `{"candidates":[{"content":{"parts":[{"text":"hello"}]}}]}`

// fakeGemini is an httptest server that records every request body.
type fakeGemini struct {
	server *httptest.Server
	hits   atomic.Int32

	mu     sync.Mutex
	bodies []gemini.GenerateContentRequest
	paths  []string
}

func newFakeGemini(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) *fakeGemini {
	t.Helper()
	f := &fakeGemini{}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.hits.Add(1)
		var body gemini.GenerateContentRequest
		data, _ := io.ReadAll(r.Body)
		json.Unmarshal(data, &body)
		f.mu.Lock()
		f.bodies = append(f.bodies, body)
		f.paths = append(f.paths, r.URL.Path)
		f.mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(f.server.Close)
	return f
}

func respondWith(status int, body string) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, body)
	}
}

func (f *fakeGemini) client() *gemini.Client {
	return gemini.NewClient().WithBaseURL(f.server.URL)
}

// generatorFunc adapts a function to Generator.
type generatorFunc func(ctx context.Context, modelID, apiKey string, req *gemini.GenerateContentRequest) (*gemini.Result, error)

func (f generatorFunc) GenerateContent(ctx context.Context, modelID, apiKey string, req *gemini.GenerateContentRequest) (*gemini.Result, error) {
	return f(ctx, modelID, apiKey, req)
}

// =============================================================================
// SUCCESSFUL TURN TESTS
// =============================================================================

func TestSubmit_WellFormedReply(t *testing.T) {
	f := newFakeGemini(t, respondWith(http.StatusOK, helloBody))
	sess := New(f.client(), testKey, DefaultConfig())

	reply, err := sess.Submit(context.Background(), "hi")
	require.NoError(t, err)

	assert.Equal(t, "hello", reply.Text)
	assert.Equal(t, KindNone, reply.Kind)
	assert.True(t, reply.Recorded)
	assert.Equal(t, StateAwaitingInput, sess.State())
}

func TestSubmit_NTurnsGrowTranscriptBy2N(t *testing.T) {
	f := newFakeGemini(t, respondWith(http.StatusOK, helloBody))
	sess := New(f.client(), testKey, DefaultConfig())

	inputs := []string{"one", "two", "three", "four"}
	for _, in := range inputs {
		_, err := sess.Submit(context.Background(), in)
		require.NoError(t, err)
	}

	msgs := sess.Messages()
	require.Len(t, msgs, 2*len(inputs))
	for i, in := range inputs {
		assert.Equal(t, model.RoleUser, msgs[2*i].Role)
		assert.Equal(t, in, msgs[2*i].Content)
		assert.Equal(t, model.RoleAssistant, msgs[2*i+1].Role)
		assert.Equal(t, "hello", msgs[2*i+1].Content)
	}
	assert.Equal(t, len(inputs), sess.Turns())

	// Each request carries the whole history up to and including the new user turn.
	f.mu.Lock()
	defer f.mu.Unlock()
	require.Len(t, f.bodies, len(inputs))
	for i, body := range f.bodies {
		assert.Len(t, body.Contents, 2*i+1, "request %d", i)
		assert.Equal(t, gemini.DefaultGenerationConfig(), body.GenerationConfig)
	}
	last := f.bodies[len(f.bodies)-1].Contents
	assert.Equal(t, "user", last[0].Role)
	assert.Equal(t, "model", last[1].Role)
	assert.Equal(t, "four", *last[len(last)-1].Parts[0].Text)
}

func TestSubmit_UsesSelectedModelInPath(t *testing.T) {
	f := newFakeGemini(t, respondWith(http.StatusOK, helloBody))
	sess := New(f.client(), testKey, DefaultConfig())

	require.NoError(t, sess.SetModel("gemini-2.5-pro"))
	_, err := sess.Submit(context.Background(), "hi")
	require.NoError(t, err)

	f.mu.Lock()
	defer f.mu.Unlock()
	assert.Equal(t, "/v1/models/gemini-2.5-pro:generateContent", f.paths[0])
}

// =============================================================================
// FAILURE TESTS
// =============================================================================

func TestSubmit_EmptyCandidatesPlaceholder(t *testing.T) {
	f := newFakeGemini(t, respondWith(http.StatusOK, `{"candidates":[]}`))
	sess := New(f.client(), testKey, DefaultConfig())

	reply, err := sess.Submit(context.Background(), "hi")
	require.NoError(t, err)

	assert.Equal(t, KindUnexpectedShape, reply.Kind)
	assert.True(t, strings.HasPrefix(reply.Text, gemini.UnexpectedFormatPrefix), reply.Text)
	assert.Contains(t, reply.Text, `{"candidates":[]}`)
	assert.True(t, reply.Recorded)
	assert.Equal(t, 2, sess.Len())
}

func TestSubmit_PlaceholderRecordedEvenWhenFailuresAreNot(t *testing.T) {
	f := newFakeGemini(t, respondWith(http.StatusOK, `{"candidates":[]}`))
	cfg := DefaultConfig()
	cfg.RecordFailures = false
	sess := New(f.client(), testKey, cfg)

	reply, err := sess.Submit(context.Background(), "hi")
	require.NoError(t, err)
	assert.True(t, reply.Recorded)
	assert.Equal(t, 2, sess.Len())
}

func TestSubmit_TimeoutIsTransportFailureWithoutRetry(t *testing.T) {
	f := newFakeGemini(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	client := f.client().WithTimeout(50 * time.Millisecond)
	sess := New(client, testKey, DefaultConfig())

	reply, err := sess.Submit(context.Background(), "hi")
	require.NoError(t, err)

	assert.Equal(t, KindTransport, reply.Kind)
	assert.True(t, strings.HasPrefix(reply.Text, "API Request Error:"), reply.Text)
	assert.Contains(t, reply.Text, "timed out")
	assert.NotContains(t, reply.Text, testKey)
	assert.Equal(t, int32(1), f.hits.Load())
	assert.Equal(t, StateAwaitingInput, sess.State())
}

func TestSubmit_Non2xxIsTransportFailure(t *testing.T) {
	f := newFakeGemini(t, respondWith(http.StatusBadRequest,
		`{"error":{"code":400,"message":"API key not valid.","status":"INVALID_ARGUMENT"}}`))
	sess := New(f.client(), testKey, DefaultConfig())

	reply, err := sess.Submit(context.Background(), "hi")
	require.NoError(t, err)

	assert.Equal(t, KindTransport, reply.Kind)
	assert.Equal(t, "API Request Error: 400 Bad Request [INVALID_ARGUMENT]: API key not valid.", reply.Text)
	assert.NotContains(t, reply.Text, testKey)
}

func TestSubmit_UndecodableBodyIsUncategorized(t *testing.T) {
	f := newFakeGemini(t, respondWith(http.StatusOK, "not json"))
	sess := New(f.client(), testKey, DefaultConfig())

	reply, err := sess.Submit(context.Background(), "hi")
	require.NoError(t, err)

	assert.Equal(t, KindUncategorized, reply.Kind)
	assert.True(t, strings.HasPrefix(reply.Text, "An unexpected error occurred:"), reply.Text)
}

func TestSubmit_NullBodyIsUncategorized(t *testing.T) {
	f := newFakeGemini(t, respondWith(http.StatusOK, "null"))
	sess := New(f.client(), testKey, DefaultConfig())

	reply, err := sess.Submit(context.Background(), "hi")
	require.NoError(t, err)

	assert.Equal(t, KindUncategorized, reply.Kind)
	assert.Contains(t, reply.Text, "not a JSON object")
}

func TestSubmit_WrongFieldTypesArePlaceholders(t *testing.T) {
	bodies := []string{
		`{"candidates":"oops"}`,
		`{"candidates":[{"content":"x"}]}`,
		`{"candidates":[{"content":{"parts":[{"text":5}]}}]}`,
	}
	for _, body := range bodies {
		t.Run(body, func(t *testing.T) {
			f := newFakeGemini(t, respondWith(http.StatusOK, body))
			sess := New(f.client(), testKey, DefaultConfig())

			reply, err := sess.Submit(context.Background(), "hi")
			require.NoError(t, err)

			assert.Equal(t, KindUnexpectedShape, reply.Kind)
			assert.True(t, strings.HasPrefix(reply.Text, gemini.UnexpectedFormatPrefix), reply.Text)
			assert.True(t, strings.HasSuffix(reply.Text, body), reply.Text)
			assert.True(t, reply.Recorded)
			assert.Equal(t, 2, sess.Len())
		})
	}
}

func TestSubmit_FailurePersistencePolicy(t *testing.T) {
	tests := []struct {
		name           string
		recordFailures bool
		wantLen        int
	}{
		{"record failures", true, 2},
		{"display only", false, 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFakeGemini(t, respondWith(http.StatusInternalServerError, "boom"))
			cfg := DefaultConfig()
			cfg.RecordFailures = tc.recordFailures
			sess := New(f.client(), testKey, cfg)

			reply, err := sess.Submit(context.Background(), "hi")
			require.NoError(t, err)

			assert.Equal(t, KindTransport, reply.Kind)
			assert.Equal(t, tc.recordFailures, reply.Recorded)
			assert.Equal(t, tc.wantLen, sess.Len())
			if tc.recordFailures {
				last, ok := sess.LastReply()
				require.True(t, ok)
				assert.Equal(t, reply.Text, last)
			}
		})
	}
}

func TestSubmit_MissingCredentialMakesNoNetworkCall(t *testing.T) {
	f := newFakeGemini(t, respondWith(http.StatusOK, helloBody))
	sess := New(f.client(), "", DefaultConfig())

	reply, err := sess.Submit(context.Background(), "hi")
	require.NoError(t, err)

	assert.Equal(t, KindMissingCredential, reply.Kind)
	assert.Equal(t, MissingCredentialNotice, reply.Text)
	assert.False(t, reply.Recorded)
	assert.Equal(t, int32(0), f.hits.Load())
	assert.Equal(t, 0, sess.Len())
	assert.Equal(t, StateEmpty, sess.State())

	// Supplying the key later unblocks the session.
	require.NoError(t, sess.SetCredential(testKey))
	reply, err = sess.Submit(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "hello", reply.Text)
	assert.Equal(t, int32(1), f.hits.Load())
}

func TestSubmit_PanicInGeneratorIsRecovered(t *testing.T) {
	gen := generatorFunc(func(context.Context, string, string, *gemini.GenerateContentRequest) (*gemini.Result, error) {
		panic("kaboom")
	})
	sess := New(gen, testKey, DefaultConfig())

	reply, err := sess.Submit(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, KindUncategorized, reply.Kind)
	assert.Equal(t, "An unexpected error occurred: kaboom", reply.Text)
	assert.Equal(t, StateAwaitingInput, sess.State())
}

// =============================================================================
// GUARD TESTS
// =============================================================================

func TestSubmit_EmptyInputRejected(t *testing.T) {
	f := newFakeGemini(t, respondWith(http.StatusOK, helloBody))
	sess := New(f.client(), testKey, DefaultConfig())

	for _, in := range []string{"", "   ", "\n\t"} {
		_, err := sess.Submit(context.Background(), in)
		assert.ErrorIs(t, err, ErrEmptyInput)
	}
	assert.Equal(t, 0, sess.Len())
	assert.Equal(t, int32(0), f.hits.Load())
}

func TestSubmit_SecondTurnWhileInFlightRejected(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	gen := generatorFunc(func(ctx context.Context, _, _ string, _ *gemini.GenerateContentRequest) (*gemini.Result, error) {
		close(started)
		<-release
		return &gemini.Result{
			Response: &gemini.GenerateContentResponse{Candidates: []gemini.Candidate{{
				Content: &gemini.Content{Parts: []gemini.Part{{Text: ptr("first")}}},
			}}},
		}, nil
	})
	sess := New(gen, testKey, DefaultConfig())

	done := make(chan Reply)
	go func() {
		reply, _ := sess.Submit(context.Background(), "one")
		done <- reply
	}()

	<-started
	assert.Equal(t, StateTurnInFlight, sess.State())

	_, err := sess.Submit(context.Background(), "two")
	assert.ErrorIs(t, err, ErrTurnInFlight)

	close(release)
	reply := <-done
	assert.Equal(t, "first", reply.Text)
	assert.Equal(t, 2, sess.Len())
}

func TestSubmit_AfterCloseRejected(t *testing.T) {
	f := newFakeGemini(t, respondWith(http.StatusOK, helloBody))
	sess := New(f.client(), testKey, DefaultConfig())
	sess.Close()

	_, err := sess.Submit(context.Background(), "hi")
	assert.ErrorIs(t, err, ErrSessionClosed)
	assert.Equal(t, StateClosed, sess.State())
	assert.ErrorIs(t, sess.SetCredential("x"), ErrSessionClosed)
}

func TestSetModel(t *testing.T) {
	sess := New(gemini.NewClient(), testKey, DefaultConfig())

	assert.NoError(t, sess.SetModel("gemini-2.5-pro"))
	assert.Equal(t, "gemini-2.5-pro", sess.ModelID())
	assert.ErrorIs(t, sess.SetModel("gpt-4o"), ErrUnknownModel)
	assert.Equal(t, "gemini-2.5-pro", sess.ModelID())

	fixed := DefaultConfig()
	fixed.Selectable = false
	sess = New(gemini.NewClient(), testKey, fixed)
	assert.ErrorIs(t, sess.SetModel("gemini-2.5-pro"), ErrModelFixed)
	assert.NoError(t, sess.SetModel(model.DefaultModelID), "re-selecting the current model is a no-op")
}

// =============================================================================
// PRIMITIVE TESTS
// =============================================================================

func TestBuildRemoteRequest_PureAndIdempotent(t *testing.T) {
	tr := model.NewTranscript()
	tr.AppendUser("hi")
	tr.AppendAssistant("hello")
	tr.AppendUser("bye")

	first := BuildRemoteRequest(tr)
	second := BuildRemoteRequest(tr)

	assert.True(t, reflect.DeepEqual(first, second))
	assert.Equal(t, 3, tr.Len())

	require.Len(t, first.Contents, 3)
	assert.Equal(t, []string{"user", "model", "user"},
		[]string{first.Contents[0].Role, first.Contents[1].Role, first.Contents[2].Role})
	assert.Equal(t, gemini.GenerationConfig{MaxOutputTokens: 1024, Temperature: 0.7, TopP: 0.8}, first.GenerationConfig)
}

func TestPrimitives_ComposeLikeSubmit(t *testing.T) {
	f := newFakeGemini(t, respondWith(http.StatusOK, helloBody))
	sess := New(f.client(), testKey, DefaultConfig())

	_, err := sess.AppendUserTurn("  hi  ")
	require.NoError(t, err)
	assert.Equal(t, StateAwaitingInput, sess.State())

	reply := sess.SendAndReceive(context.Background(), sess.BuildRemoteRequest())
	assert.Equal(t, "hello", reply.Text)
	assert.Equal(t, 1, sess.Len(), "SendAndReceive must not touch the transcript")

	sess.AppendAssistantTurn(reply.Text)
	msgs := sess.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "hi", msgs[0].Content)
	assert.Equal(t, "hello", msgs[1].Content)
}

func TestAppendUserTurn_StoresNormalizedText(t *testing.T) {
	sess := New(gemini.NewClient(), testKey, DefaultConfig())

	msg, err := sess.AppendUserTurn("\tcafe\u0301 au lait\n")
	require.NoError(t, err)
	assert.Equal(t, "caf\u00e9 au lait", msg.Content)
	assert.Equal(t, msg.Content, sess.Messages()[0].Content)
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "ok", KindNone.String())
	assert.Equal(t, "transport", KindTransport.String())
	assert.True(t, KindTransport.IsError())
	assert.False(t, KindUnexpectedShape.IsError())

	data, err := json.Marshal(Reply{Text: "x", Kind: KindUncategorized})
	require.NoError(t, err)
	assert.JSONEq(t, `{"reply":"x","kind":"uncategorized","recorded":false}`, string(data))
}

func TestKindOfText(t *testing.T) {
	tests := []struct {
		text string
		want Kind
	}{
		{"hello", KindNone},
		{TransportErrorPrefix + "POST x: request timed out after 30s", KindTransport},
		{UncategorizedErrorPrefix + "boom", KindUncategorized},
		{gemini.UnexpectedFormatReply("no candidates", []byte(`{"candidates":[]}`)), KindUnexpectedShape},
		{MissingCredentialNotice, KindMissingCredential},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, KindOfText(tt.text), tt.text)
	}
}

func ptr(s string) *string { return &s }
