package knowledge

import (
	"bytes"
	"sync/atomic"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/quka-ai/knowledge/app/logic/v1"
)

func TestQueryWithoutFlagsPrintsHelp(t *testing.T) {
	cmd := NewQueryCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "--list-docs")
	assert.Contains(t, out.String(), "--semantic")
}

func TestCommandFlags(t *testing.T) {
	for _, cmd := range []*cobra.Command{
		NewSetupCommand(), NewVerifyCommand(), NewImportTranscriptCommand(),
		NewImportYoutubeCommand(), NewListVideosCommand(), NewQueryCommand(), NewMCPCommand(),
	} {
		assert.NotNil(t, cmd.Flag("config"), cmd.Name())
	}

	cmd := NewImportYoutubeCommand()
	require.NoError(t, cmd.ParseFlags([]string{"-c", "conf.toml", "--skip-existing", "--schedule", "@every 1h"}))
	assert.Equal(t, "conf.toml", cmd.Flag("config").Value.String())
	assert.Equal(t, "true", cmd.Flag("skip-existing").Value.String())

	mcpCmd := NewMCPCommand()
	require.NoError(t, mcpCmd.ParseFlags([]string{"--http"}))
	assert.Equal(t, "default", mcpCmd.Flag("http").Value.String())
}

func TestProgressPrinter(t *testing.T) {
	out := &bytes.Buffer{}
	p := newProgressPrinter(out)

	p.Report(v1.ImportProgress{Stage: v1.STAGE_SOURCE, Current: 1, Total: 1, Message: "Creating source record"})
	p.Report(v1.ImportProgress{Stage: v1.STAGE_CHUNK, Current: 1, Total: 2, Message: "Created chunk 1/2"})
	p.Report(v1.ImportProgress{Stage: v1.STAGE_CHUNK, Current: 2, Total: 2, Message: "Error creating chunk 2: boom"})
	p.finish()

	assert.Contains(t, out.String(), "Creating source record")
	assert.Contains(t, out.String(), "Error creating chunk 2: boom")
	assert.NotContains(t, out.String(), "Created chunk 1/2")
	assert.Nil(t, p.bar)
}

func TestImportSchedulerSkipsOverlappingRuns(t *testing.T) {
	var runs atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})

	c, err := newImportScheduler("@every 1h", func() {
		runs.Add(1)
		close(started)
		<-release
	})
	require.NoError(t, err)

	entries := c.Entries()
	require.Len(t, entries, 1)
	job := entries[0].WrappedJob

	done := make(chan struct{})
	go func() {
		job.Run()
		close(done)
	}()
	<-started

	// 上一次仍在执行，本次直接返回
	job.Run()
	assert.Equal(t, int32(1), runs.Load())

	close(release)
	<-done
}

func TestImportSchedulerRejectsInvalidSpec(t *testing.T) {
	_, err := newImportScheduler("every hour", func() {})
	assert.ErrorContains(t, err, "invalid schedule")
}
