package cli

import (
	"strings"
	"testing"
)

func TestRenderTable(t *testing.T) {
	t.Parallel()

	out := renderTable(
		[]string{"Stage", "Status"},
		[][]string{{"acquiring", "done"}, {"rendering"}},
		false,
	)
	for _, want := range []string{"STAGE", "STATUS", "acquiring", "done", "rendering"} {
		if !strings.Contains(out, want) {
			t.Errorf("table output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "╭") {
		t.Errorf("piped output should not use rounded borders:\n%s", out)
	}
}
