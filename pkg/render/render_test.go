package render_test

import (
	"testing"

	"github.com/baton-project/baton/pkg/render"
	"github.com/stretchr/testify/assert"
)

func TestPlain_StatusLabel(t *testing.T) {
	out := render.Plain(render.Result{Status: render.StatusConflict, Message: "workspace is claimed"})
	assert.Equal(t, "[CONFLICT] workspace is claimed", out)
}

func TestPlain_DetailsSorted(t *testing.T) {
	out := render.Plain(render.Result{
		Status:  render.StatusOK,
		Message: "lease acquired",
		Details: map[string]string{"expires": "12:30", "agent": "planner-1"},
	})
	assert.Equal(t, "[OK] lease acquired\n  agent: planner-1\n  expires: 12:30", out)
}

func TestPlain_UnknownStatus(t *testing.T) {
	out := render.Plain(render.Result{Status: "weird", Message: "m"})
	assert.Equal(t, "[WEIRD] m", out)
}
