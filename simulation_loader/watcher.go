package simulationloader

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// EnvironmentWatcher waits for the frontend to publish environment/<step>.json
// without burning a goroutine on time.Sleep polling. It satisfies
// server.EnvironmentWaiter.
type EnvironmentWatcher struct {
	dir     string
	watcher *fsnotify.Watcher
}

func NewEnvironmentWatcher(dir string) (*EnvironmentWatcher, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("could not create environment dir: %w", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("could not start environment watcher: %w", err)
	}

	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, fmt.Errorf("could not watch environment dir: %w", err)
	}

	return &EnvironmentWatcher{dir: dir, watcher: w}, nil
}

// WaitForStep blocks until environment/<step>.json exists, a watcher error
// occurs, or ctx is cancelled. A file already present before Wait is called
// is detected immediately, so the watcher never misses a publish that raced
// the fsnotify registration.
func (w *EnvironmentWatcher) WaitForStep(ctx context.Context, step int) error {
	target := fmt.Sprintf("%d.json", step)
	targetPath := path.Join(w.dir, target)

	if _, err := os.Stat(targetPath); err == nil {
		return nil
	}

	for {
		select {
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("environment watcher closed while waiting for step %d", step)
			}
			if filepath.Base(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				return nil
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("environment watcher closed while waiting for step %d", step)
			}
			return fmt.Errorf("environment watcher error: %w", err)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (w *EnvironmentWatcher) Close() error {
	return w.watcher.Close()
}

// WriteHandshake publishes curr_sim_code.json and curr_step.json to the
// shared temp storage directory so the frontend knows which simulation and
// step to look for.
func (fs *FileStorage) WriteHandshake(step int) error {
	tmp := path.Join(fs.SimulationsFolder, "temp_storage")

	if err := writeJson(path.Join(tmp, "curr_sim_code.json"), map[string]string{"sim_code": fs.Simulation}); err != nil {
		return fmt.Errorf("could not write curr_sim_code handshake: %w", err)
	}

	if err := writeJson(path.Join(tmp, "curr_step.json"), map[string]int{"step": step}); err != nil {
		return fmt.Errorf("could not write curr_step handshake: %w", err)
	}

	return nil
}
