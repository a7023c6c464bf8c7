package generator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLLM struct {
	reply   string
	err     error
	prompts []Prompt
}

func (r *recordingLLM) Complete(_ context.Context, p Prompt) (string, error) {
	r.prompts = append(r.prompts, p)
	return r.reply, r.err
}

func TestNewAgentRequiresClient(t *testing.T) {
	_, err := NewAgent(nil, nil)
	require.Error(t, err)
}

func TestAgentPassesInputVerbatim(t *testing.T) {
	llm := &recordingLLM{reply: "  ok  \n"}
	agent, err := NewAgent(llm, nil)
	require.NoError(t, err)

	raw := "fact one\nfact two with 'quotes'\n"
	out, err := agent.Organize(context.Background(), "Rust", raw)
	require.NoError(t, err)
	assert.Equal(t, "ok", out)

	require.Len(t, llm.prompts, 1)
	assert.Contains(t, llm.prompts[0].User, raw)
	assert.True(t, strings.HasPrefix(llm.prompts[0].System, "Role: Summarizer"))

	_, err = agent.Format(context.Background(), "Rust", "structured text")
	require.NoError(t, err)
	assert.Contains(t, llm.prompts[1].User, "structured text")
	assert.Contains(t, llm.prompts[1].User, "# Rust")
}

func TestAgentRejectsEmptyOutput(t *testing.T) {
	agent, err := NewAgent(&recordingLLM{reply: " \n\t "}, nil)
	require.NoError(t, err)

	_, err = agent.Format(context.Background(), "Rust", "x")
	assert.ErrorIs(t, err, ErrEmptyOutput)
}

func TestAgentPropagatesClientError(t *testing.T) {
	quota := errors.New("429 quota exceeded")
	agent, err := NewAgent(&recordingLLM{err: quota}, nil)
	require.NoError(t, err)

	_, err = agent.Extract(context.Background(), "Rust", "")
	assert.ErrorIs(t, err, quota)
}

func TestPostProcess(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "\n# Title\n\nBody\n", "# Title\n\nBody"},
		{"fenced markdown", "```markdown\n# Title\n\nBody\n```", "# Title\n\nBody"},
		{"bare fence", "```\n# Title\n```\n", "# Title"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PostProcess(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := PostProcess("```\n```")
	assert.ErrorIs(t, err, ErrEmptyOutput)
}

func TestMockLLMFollowsHeadingGrammar(t *testing.T) {
	out, err := MockLLM{}.Complete(context.Background(), BuildFormattingPrompt("Ancient Rome", "summary"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "# Ancient Rome\n"))
	assert.Contains(t, out, "## History\n\n---\n")
	assert.Contains(t, out, "### Early Developments")
}

func TestNewClientProviders(t *testing.T) {
	ctx := context.Background()

	c, err := NewClient(ctx, LLMSettings{Provider: "mock"})
	require.NoError(t, err)
	assert.IsType(t, MockLLM{}, c)

	_, err = NewClient(ctx, LLMSettings{Provider: "deepseek", APIKey: "k", Model: "deepseek-chat"})
	assert.ErrorContains(t, err, "base_url")

	_, err = NewClient(ctx, LLMSettings{Provider: "openai", Model: "gpt-4o"})
	assert.ErrorContains(t, err, "api key")

	_, err = NewClient(ctx, LLMSettings{Provider: "nope"})
	assert.ErrorContains(t, err, "not supported")

	c, err = NewClient(ctx, LLMSettings{Provider: "openai", APIKey: "k", Model: "gpt-4o"})
	require.NoError(t, err)
	assert.IsType(t, &OpenAILLM{}, c)
}
