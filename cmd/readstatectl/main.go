// Command readstatectl inspects and edits the persisted read state of a
// viewer directly in the storage backend. The server should be stopped
// while it runs against bolt or badger, which lock their files.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
	"gopkg.in/yaml.v3"

	"github.com/campusdesk/portal/config"
	"github.com/campusdesk/portal/models"
	"github.com/campusdesk/portal/repository"
	"github.com/campusdesk/portal/services"
)

type Options struct {
	Driver string `short:"d" long:"driver" description:"Storage driver" choice:"sqlite" choice:"bolt" choice:"badger" env:"STORAGE_DRIVER" default:"sqlite"`
	Path   string `short:"p" long:"path" description:"Database file or directory" env:"STORAGE_PATH" default:"./data/readstate.db"`
}

var (
	options Options
	out     io.Writer = os.Stdout
)

type Dump struct {
	Viewer string `long:"viewer" description:"Viewer id; empty means guest"`
}

func (c *Dump) Execute(args []string) error {
	return withRepo(func(ctx context.Context, repo repository.ReadStateRepository) error {
		scope := services.ResolveScope(c.Viewer)
		state, err := repo.Load(ctx, scope)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		}
		return writeState(out, scope, state)
	})
}

type Mark struct {
	Viewer string `long:"viewer" description:"Viewer id; empty means guest"`
	Kind   string `long:"kind" description:"What to mark" choice:"resource" choice:"chapter" choice:"public" choice:"batch" required:"yes"`
	ID     string `long:"id" description:"Item id, or batch id for --kind=batch" required:"yes"`
}

func (c *Mark) Execute(args []string) error {
	return withRepo(func(ctx context.Context, repo repository.ReadStateRepository) error {
		scope := services.ResolveScope(c.Viewer)
		store := services.NewReadStateStore(repo, time.Now)

		var err error
		switch c.Kind {
		case "resource":
			_, err = store.MarkResourceRead(ctx, scope, c.ID)
		case "chapter":
			_, err = store.MarkChapterRead(ctx, scope, c.ID)
		case "public":
			_, err = store.MarkPublicResourceRead(ctx, scope, c.ID)
		case "batch":
			_, err = store.MarkBatchSeen(ctx, scope, c.ID)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "marked %s %s for %s\n", c.Kind, c.ID, scope)
		return nil
	})
}

type Clear struct {
	Viewer string `long:"viewer" description:"Viewer id; empty means guest"`
}

func (c *Clear) Execute(args []string) error {
	return withRepo(func(ctx context.Context, repo repository.ReadStateRepository) error {
		scope := services.ResolveScope(c.Viewer)
		if err := repo.Clear(ctx, scope); err != nil {
			return err
		}
		fmt.Fprintf(out, "cleared read state of %s\n", scope)
		return nil
	})
}

type Token struct {
	Viewer string        `long:"viewer" description:"Viewer id" required:"yes"`
	Secret string        `long:"secret" description:"Signing secret" env:"JWT_SECRET" required:"yes"`
	TTL    time.Duration `long:"ttl" description:"Token lifetime" default:"24h"`
}

func (c *Token) Execute(args []string) error {
	token, err := services.NewViewerAuth(c.Secret).IssueToken(c.Viewer, c.TTL)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, token)
	return nil
}

// stateView is the YAML shape of a dump.
type stateView struct {
	Scope               string           `yaml:"scope"`
	SeenResources       []string         `yaml:"seen_resources"`
	SeenChapters        []string         `yaml:"seen_chapters"`
	SeenPublicResources []string         `yaml:"seen_public_resources"`
	LastSeenByBatch     map[string]int64 `yaml:"last_seen_by_batch"`
}

func writeState(w io.Writer, scope models.ScopeKey, state models.ReadState) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(stateView{
		Scope:               string(scope),
		SeenResources:       state.SeenResources.IDs(),
		SeenChapters:        state.SeenChapters.IDs(),
		SeenPublicResources: state.SeenPublicResources.IDs(),
		LastSeenByBatch:     state.LastSeenByBatch,
	}); err != nil {
		return err
	}
	return enc.Close()
}

func withRepo(fn func(ctx context.Context, repo repository.ReadStateRepository) error) error {
	kv, err := repository.OpenKVStore(config.StorageConfig{Driver: options.Driver, Path: options.Path})
	if err != nil {
		return fmt.Errorf("open %s store at %s: %w", options.Driver, options.Path, err)
	}
	defer kv.Close()

	return fn(context.Background(), repository.NewReadStateRepo(kv))
}

func newParser() *flags.Parser {
	parser := flags.NewParser(&options, flags.Default)
	parser.AddCommand("dump", "Show read state", "Print a viewer's persisted read state as YAML", &Dump{})
	parser.AddCommand("mark", "Mark an item", "Mark an item read, or a batch seen now, for a viewer", &Mark{})
	parser.AddCommand("clear", "Clear read state", "Delete every read-state record of a viewer", &Clear{})
	parser.AddCommand("token", "Issue a viewer token", "Sign a bearer token for a viewer", &Token{})
	return parser
}

func main() {
	if _, err := newParser().Parse(); err != nil {
		if flagErr, ok := err.(*flags.Error); ok && flagErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}
}
