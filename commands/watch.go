package commands

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/penwyp/go-claude-spend/internal/util"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-render the summary whenever the record log changes",
	RunE:  runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	reporter, err := loadReporter()
	if err != nil {
		return err
	}
	fmt.Print(reporter.Summary())

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: the log may not exist yet, and rotation
	// replaces the file out from under a file-level watch.
	logDir := filepath.Dir(expandPath(recordFile))
	if err := ensureDir(logDir); err != nil {
		return fmt.Errorf("failed to create record log directory: %w", err)
	}
	if err := watcher.Add(logDir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", logDir, err)
	}

	// Debounce bursts of appends into one refresh.
	var timer *time.Timer
	refresh := make(chan struct{}, 1)

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			util.LogDebug(fmt.Sprintf("Record log event: %s", event))
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(500*time.Millisecond, func() {
				select {
				case refresh <- struct{}{}:
				default:
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			util.LogWarnf("Watcher error: %v", err)
		case <-refresh:
			reporter, err := loadReporter()
			if err != nil {
				util.LogWarnf("Failed to reload records: %v", err)
				continue
			}
			fmt.Print("\n" + reporter.Summary())
		}
	}
}
