package terminal

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charlesng35/termfolio/internal/models"
)

// Track is the playback snapshot rendered by the now-playing command.
type Track struct {
	Title   string
	Artist  string
	Album   string
	URL     string
	Playing bool
}

// ProjectProvider supplies published portfolio projects.
type ProjectProvider interface {
	ListPublished(ctx context.Context) ([]models.Project, error)
	GetPublishedBySlug(ctx context.Context, slug string) (*models.Project, error)
}

// PostProvider supplies published blog posts.
type PostProvider interface {
	ListPublished(ctx context.Context) ([]models.BlogPost, error)
	GetPublishedBySlug(ctx context.Context, slug string) (*models.BlogPost, error)
}

// SettingProvider reads admin-managed content fragments.
type SettingProvider interface {
	Value(ctx context.Context, key string) (string, error)
}

// NowPlayingProvider reports current Spotify playback, nil when idle.
type NowPlayingProvider interface {
	NowPlaying(ctx context.Context) (*Track, error)
}

// HistoryProvider returns the most recent command lines for a client.
type HistoryProvider interface {
	RecentCommands(ctx context.Context, clientIP string, limit int) ([]string, error)
}

// Providers bundles the data sources the built-in commands read from.
// Nil entries degrade the corresponding command to a friendly notice.
type Providers struct {
	Projects   ProjectProvider
	Posts      PostProvider
	Settings   SettingProvider
	NowPlaying NowPlayingProvider
	History    HistoryProvider

	// HistoryLimit caps how many lines the history command shows.
	// Non-positive values fall back to the default.
	HistoryLimit int
}

const defaultHistoryLimit = 20

// RegisterBuiltins installs the standard portfolio command set.
func RegisterBuiltins(registry *Registry, p Providers) {
	registry.MustRegister(Command{
		Name:    "help",
		Aliases: []string{"?", "commands"},
		Summary: "List available commands",
		Usage:   "help",
		Handler: helpHandler(registry),
	})

	registry.MustRegister(Command{
		Name:    "about",
		Aliases: []string{"whois"},
		Summary: "About the site owner",
		Usage:   "about",
		Handler: settingHandler(p.Settings, models.SettingAbout, "No about text configured yet."),
	})

	registry.MustRegister(Command{
		Name:    "projects",
		Aliases: []string{"ls", "portfolio"},
		Summary: "List portfolio projects",
		Usage:   "projects",
		Handler: projectsHandler(p.Projects),
	})

	registry.MustRegister(Command{
		Name:    "project",
		Summary: "Show a single project",
		Usage:   "project <slug>",
		Handler: projectHandler(p.Projects),
	})

	registry.MustRegister(Command{
		Name:    "blog",
		Aliases: []string{"posts"},
		Summary: "List blog posts, or read one",
		Usage:   "blog [slug]",
		Handler: blogHandler(p.Posts),
	})

	registry.MustRegister(Command{
		Name:    "now-playing",
		Aliases: []string{"np", "spotify"},
		Summary: "What is playing on Spotify right now",
		Usage:   "now-playing",
		Handler: nowPlayingHandler(p.NowPlaying),
	})

	registry.MustRegister(Command{
		Name:    "location",
		Aliases: []string{"where"},
		Summary: "Where in the world",
		Usage:   "location",
		Handler: settingHandler(p.Settings, models.SettingLocation, "Location not configured."),
	})

	registry.MustRegister(Command{
		Name:    "tech-stack",
		Aliases: []string{"stack", "tech"},
		Summary: "Tools and technologies in daily use",
		Usage:   "tech-stack",
		Handler: settingHandler(p.Settings, models.SettingTechStack, "Tech stack not configured."),
	})

	registry.MustRegister(Command{
		Name:    "contact",
		Aliases: []string{"email"},
		Summary: "How to get in touch",
		Usage:   "contact",
		Handler: settingHandler(p.Settings, models.SettingContact, "Contact details not configured."),
	})

	registry.MustRegister(Command{
		Name:    "whoami",
		Summary: "Show the connecting client",
		Usage:   "whoami",
		Handler: whoamiHandler(),
	})

	registry.MustRegister(Command{
		Name:    "clear",
		Aliases: []string{"cls"},
		Summary: "Clear the terminal",
		Usage:   "clear",
		Handler: func(ctx context.Context, req Request) ([]Block, error) {
			return []Block{Clear()}, nil
		},
	})

	historyLimit := p.HistoryLimit
	if historyLimit <= 0 {
		historyLimit = defaultHistoryLimit
	}
	registry.MustRegister(Command{
		Name:    "history",
		Summary: "Recently executed commands",
		Usage:   "history",
		Handler: historyHandler(p.History, historyLimit),
	})
}

func helpHandler(registry *Registry) Handler {
	return func(ctx context.Context, req Request) ([]Block, error) {
		rows := make([][]string, 0)
		for _, cmd := range registry.Commands() {
			rows = append(rows, []string{cmd.Usage, cmd.Summary})
		}
		return []Block{
			Heading("Available commands"),
			Table([]string{"command", "description"}, rows),
		}, nil
	}
}

func settingHandler(settings SettingProvider, key, fallback string) Handler {
	return func(ctx context.Context, req Request) ([]Block, error) {
		if settings == nil {
			return []Block{Text(fallback)}, nil
		}

		value, err := settings.Value(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", key, err)
		}
		if strings.TrimSpace(value) == "" {
			value = fallback
		}
		return []Block{Text(value)}, nil
	}
}

func projectsHandler(projects ProjectProvider) Handler {
	return func(ctx context.Context, req Request) ([]Block, error) {
		if projects == nil {
			return []Block{Text("No projects to show yet.")}, nil
		}

		list, err := projects.ListPublished(ctx)
		if err != nil {
			return nil, fmt.Errorf("list projects: %w", err)
		}
		if len(list) == 0 {
			return []Block{Text("No projects to show yet.")}, nil
		}

		rows := make([][]string, 0, len(list))
		for _, project := range list {
			rows = append(rows, []string{
				project.Slug,
				project.Name,
				project.Status,
				joinTechnologies(project.Technologies),
			})
		}

		return []Block{
			Heading("Projects"),
			Table([]string{"slug", "name", "status", "tech"}, rows),
			Text("Run 'project <slug>' for details."),
		}, nil
	}
}

func projectHandler(projects ProjectProvider) Handler {
	return func(ctx context.Context, req Request) ([]Block, error) {
		if len(req.Args) != 1 {
			return []Block{Text("usage: project <slug>")}, nil
		}
		if projects == nil {
			return []Block{Text("No projects to show yet.")}, nil
		}

		project, err := projects.GetPublishedBySlug(ctx, req.Args[0])
		if err != nil {
			return nil, err
		}

		blocks := []Block{
			Heading(project.Name),
			Text(project.Description),
		}
		if tech := joinTechnologies(project.Technologies); tech != "" {
			blocks = append(blocks, Text("Built with: "+tech))
		}
		if project.RepoURL != "" {
			blocks = append(blocks, Link("source", project.RepoURL))
		}
		if project.LiveURL != "" {
			blocks = append(blocks, Link("live demo", project.LiveURL))
		}
		return blocks, nil
	}
}

func blogHandler(posts PostProvider) Handler {
	return func(ctx context.Context, req Request) ([]Block, error) {
		if posts == nil {
			return []Block{Text("No posts yet.")}, nil
		}

		if len(req.Args) >= 1 {
			post, err := posts.GetPublishedBySlug(ctx, req.Args[0])
			if err != nil {
				return nil, err
			}
			blocks := []Block{Heading(post.Title)}
			if post.PublishedAt != nil {
				blocks = append(blocks, Text(post.PublishedAt.Format("2006-01-02")))
			}
			blocks = append(blocks, Text(post.Body))
			return blocks, nil
		}

		list, err := posts.ListPublished(ctx)
		if err != nil {
			return nil, fmt.Errorf("list posts: %w", err)
		}
		if len(list) == 0 {
			return []Block{Text("No posts yet.")}, nil
		}

		rows := make([][]string, 0, len(list))
		for _, post := range list {
			published := ""
			if post.PublishedAt != nil {
				published = post.PublishedAt.Format("2006-01-02")
			}
			rows = append(rows, []string{post.Slug, post.Title, published})
		}

		return []Block{
			Heading("Blog"),
			Table([]string{"slug", "title", "published"}, rows),
			Text("Run 'blog <slug>' to read a post."),
		}, nil
	}
}

func nowPlayingHandler(provider NowPlayingProvider) Handler {
	return func(ctx context.Context, req Request) ([]Block, error) {
		if provider == nil {
			return []Block{Text("Spotify is not connected.")}, nil
		}

		track, err := provider.NowPlaying(ctx)
		if err != nil {
			return nil, fmt.Errorf("now playing: %w", err)
		}
		if track == nil || !track.Playing {
			return []Block{Text("Nothing playing right now.")}, nil
		}

		blocks := []Block{
			Text(fmt.Sprintf("♫ %s - %s (%s)", track.Title, track.Artist, track.Album)),
		}
		if track.URL != "" {
			blocks = append(blocks, Link("open in Spotify", track.URL))
		}
		return blocks, nil
	}
}

func whoamiHandler() Handler {
	return func(ctx context.Context, req Request) ([]Block, error) {
		ip := req.Client.IP
		if ip == "" {
			ip = "unknown"
		}
		return []Block{Text("guest@" + ip)}, nil
	}
}

func historyHandler(history HistoryProvider, limit int) Handler {
	return func(ctx context.Context, req Request) ([]Block, error) {
		if history == nil {
			return []Block{Text("History is not available.")}, nil
		}

		lines, err := history.RecentCommands(ctx, req.Client.IP, limit)
		if err != nil {
			return nil, fmt.Errorf("load history: %w", err)
		}
		return HistoryBlocks(lines), nil
	}
}

// HistoryBlocks renders history lines as numbered text blocks.
func HistoryBlocks(lines []string) []Block {
	if len(lines) == 0 {
		return []Block{Text("No history yet.")}
	}

	blocks := make([]Block, 0, len(lines))
	for i, line := range lines {
		blocks = append(blocks, Text(fmt.Sprintf("%3d  %s", i+1, line)))
	}
	return blocks
}

func joinTechnologies(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}
	var technologies []string
	if err := json.Unmarshal(raw, &technologies); err != nil {
		return ""
	}
	return strings.Join(technologies, ", ")
}
