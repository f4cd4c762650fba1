package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"clipsync/internal/api"
	"clipsync/internal/config"
	"clipsync/internal/history"
	"clipsync/internal/logging"
	"clipsync/internal/paths"
)

func main() {
	sessionFlag := flag.String("session", "", "session ID (overrides config default)")
	jsonFlag := flag.Bool("json", false, "output in JSON format")
	sensitiveFlag := flag.Bool("sensitive", false, "mark the sent message sensitive")
	fileFlag := flag.String("file", "", "attach a file to the sent message")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load(paths.ConfigPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if err := paths.EnsureBase(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.NewFileOnly(paths.LogPath("clipctl"), "clipctl")
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	client := api.NewClient(cfg.ServerURL, logger)

	// Quick request/response commands get a short deadline. send is exempt:
	// an attachment upload can legitimately outlive any fixed timeout.
	ctx := context.Background()
	if args[0] != "send" {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
	}

	switch args[0] {
	case "create":
		cmdCreate(ctx, client, *jsonFlag)
	case "show":
		cmdShow(ctx, client, resolveSession(args[1:], *sessionFlag, cfg), *jsonFlag)
	case "send":
		sessionID := resolveSession(nil, *sessionFlag, cfg)
		cmdSend(ctx, client, sessionID, strings.Join(args[1:], " "), *sensitiveFlag, *fileFlag)
	case "rm":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "usage: clipctl rm <message-id>")
			os.Exit(1)
		}
		cmdRemove(ctx, client, resolveSession(nil, *sessionFlag, cfg), args[1])
	case "delete":
		cmdDelete(ctx, client, resolveSession(args[1:], *sessionFlag, cfg))
	case "history":
		cmdHistory(args[1:], *sessionFlag, cfg, *jsonFlag)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: clipctl [--session <id>] [--json] [--sensitive] [--file <path>] <command>")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "commands:")
	fmt.Fprintln(os.Stderr, "  create                    Create a new session and print its ID")
	fmt.Fprintln(os.Stderr, "  show [<id>]               Show the session's messages")
	fmt.Fprintln(os.Stderr, "  send <text>               Publish a message")
	fmt.Fprintln(os.Stderr, "  rm <message-id>           Delete one message")
	fmt.Fprintln(os.Stderr, "  delete [<id>]             Delete the whole session")
	fmt.Fprintln(os.Stderr, "  history [sessions|<id>]   Show the local cache")
}

// resolveSession picks the session ID: positional argument, then --session,
// then the config default.
func resolveSession(args []string, flagOverride string, cfg *config.Config) string {
	id := ""
	if len(args) > 0 {
		id = args[0]
	}
	if id == "" {
		id = flagOverride
	}
	if id == "" {
		id = cfg.DefaultSession
	}
	if id == "" {
		fmt.Fprintln(os.Stderr, "error: no session ID (pass one, use --session, or set default_session)")
		os.Exit(1)
	}
	if err := paths.ValidateSessionID(id); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	return id
}

func cmdCreate(ctx context.Context, c *api.Client, jsonOut bool) {
	id, err := c.CreateSession(ctx)
	if err != nil {
		fail(err)
	}
	if jsonOut {
		outputJSON(map[string]string{"id": id})
		return
	}
	fmt.Println(id)
}

func cmdShow(ctx context.Context, c *api.Client, sessionID string, jsonOut bool) {
	sess, err := c.GetSession(ctx, sessionID)
	if err != nil {
		fail(err)
	}
	if jsonOut {
		outputJSON(sess)
		return
	}
	if len(sess.Messages) == 0 {
		fmt.Println("No messages.")
		return
	}
	printMessages(sess.Messages)
}

func cmdSend(ctx context.Context, c *api.Client, sessionID, text string, sensitive bool, filePath string) {
	draft := api.Draft{Body: text, Sensitive: sensitive}

	if filePath != "" {
		f, err := os.Open(filePath)
		if err != nil {
			fail(err)
		}
		defer func() { _ = f.Close() }()
		info, err := f.Stat()
		if err != nil {
			fail(err)
		}

		mimeType := mime.TypeByExtension(filepath.Ext(filePath))
		attachType := api.AttachmentFile
		if strings.HasPrefix(mimeType, "image/") {
			attachType = api.AttachmentImage
		}
		draft.File = &api.FileUpload{
			Name:   filepath.Base(filePath),
			Mime:   mimeType,
			Type:   attachType,
			Size:   info.Size(),
			Reader: f,
		}
	}

	if err := c.SendMessage(ctx, sessionID, draft); err != nil {
		fail(err)
	}
	fmt.Println("sent")
}

func cmdRemove(ctx context.Context, c *api.Client, sessionID, messageID string) {
	if err := c.DeleteMessage(ctx, sessionID, messageID); err != nil {
		fail(err)
	}
	fmt.Println("deleted")
}

func cmdDelete(ctx context.Context, c *api.Client, sessionID string) {
	if err := c.DeleteSession(ctx, sessionID); err != nil {
		fail(err)
	}
	fmt.Println("session deleted")
}

func cmdHistory(args []string, flagOverride string, cfg *config.Config, jsonOut bool) {
	db, err := history.Open(paths.CacheDBPath())
	if err != nil {
		fail(err)
	}
	defer func() { _ = db.Close() }()
	if _, err := db.Migrate(); err != nil {
		fail(err)
	}

	if len(args) > 0 && args[0] == "sessions" {
		sessions, err := db.ListSessions()
		if err != nil {
			fail(err)
		}
		if jsonOut {
			outputJSON(sessions)
			return
		}
		if len(sessions) == 0 {
			fmt.Println("No sessions in cache.")
			return
		}
		for _, s := range sessions {
			state := ""
			if s.Deleted {
				state = " (deleted)"
			}
			fmt.Printf("%-32s last seen %s%s\n", s.ID, time.Unix(s.LastSeenAt, 0).Format("2006-01-02 15:04"), state)
		}
		return
	}

	sessionID := resolveSession(args, flagOverride, cfg)
	msgs, err := db.ListMessages(sessionID, 0, 100)
	if err != nil {
		fail(err)
	}
	if jsonOut {
		outputJSON(msgs)
		return
	}
	if len(msgs) == 0 {
		fmt.Println("No cached messages.")
		return
	}
	printMessages(msgs)
}

func printMessages(msgs []api.Message) {
	for _, m := range msgs {
		ts := time.Unix(m.CreatedAt, 0).Format("2006-01-02 15:04")
		body := m.Body
		if m.Sensitive {
			body = "(sensitive)"
		}
		line := fmt.Sprintf("%s  %-20s %s", ts, m.ID, body)
		if m.HasAttachment() {
			line += fmt.Sprintf(" [%s: %s]", m.AttachmentType, m.AttachmentName)
		}
		fmt.Println(line)
	}
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

func outputJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "json encode error: %v\n", err)
	}
}
