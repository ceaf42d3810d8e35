package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/styleatelier/atelier/internal/config"
	"github.com/styleatelier/atelier/internal/db"
	"github.com/styleatelier/atelier/internal/errors"
	"github.com/styleatelier/atelier/internal/logging"
	"github.com/styleatelier/atelier/internal/mcp"
	"github.com/styleatelier/atelier/internal/ops"
	"github.com/styleatelier/atelier/internal/prompt"
	"github.com/styleatelier/atelier/internal/web"
)

// maxStdinBytes caps piped input (commands, HTML fragments).
const maxStdinBytes = 1 << 20

// newCLIApp creates the CLI application with all commands.
func newCLIApp(store *db.Store, cfg *config.Config, log *logging.Logger) *cli.App {
	if log == nil {
		log = logging.Nop()
	}
	app := &cli.App{
		Name:    "atelier",
		Usage:   "Style card library for image prompts",
		Version: Version,
		Commands: []*cli.Command{
			parseCmd(),
			buildCmd(),
			mergeCmd(),
			keywordsCmd(store),
			captureCmd(store),
			historyCmd(store),
			mintCmd(store, cfg),
			cardsCmd(store),
			fetchCmd(store, cfg),
			editCmd(store),
			evolveCmd(store, cfg),
			varyCmd(store, cfg),
			useCmd(store, cfg),
			deleteCmd(store),
			pinCmd(store),
			unpinCmd(store),
			handCmd(store),
			composeCmd(store, cfg),
			deckCmd(store),
			exportCmd(store, cfg),
			importCmd(store, cfg),
			serveCmd(store, cfg, log),
			mcpCmd(store, cfg, log),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// Prompt commands work on text alone and need no database.

func parseCmd() *cli.Command {
	return &cli.Command{
		Name:      "parse",
		Usage:     "Parse a prompt command into segments and parameters",
		ArgsUsage: "[command] (or stdin)",
		Action: func(c *cli.Context) error {
			command, err := commandText(c)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(prompt.Parse(command))
		},
	}
}

func buildCmd() *cli.Command {
	return &cli.Command{
		Name:      "build",
		Usage:     "Normalize a prompt command, optionally sealing parameter keys",
		ArgsUsage: "[command] (or stdin)",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{Name: "mask", Usage: "Parameter key to omit (repeatable): sref, p, ar, ..."},
		},
		Action: func(c *cli.Context) error {
			command, err := commandText(c)
			if err != nil {
				return outputError(err)
			}
			masked, err := prompt.ParseMaskedKeys(c.StringSlice("mask"))
			if err != nil {
				return outputError(errors.NewInvalidRequest(err.Error()))
			}
			parsed := prompt.Parse(command)
			return outputJSON(map[string]any{
				"prompt": prompt.Build(parsed.Segments, parsed.Parameters, masked...),
			})
		},
	}
}

func mergeCmd() *cli.Command {
	return &cli.Command{
		Name:      "merge",
		Usage:     "Merge the bodies of several prompt commands without duplicates",
		ArgsUsage: "<command> <command>...",
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return outputError(errors.NewInvalidRequest("at least one command is required"))
			}
			var all []prompt.Segment
			for _, command := range c.Args().Slice() {
				all = append(all, prompt.Parse(command).Segments...)
			}
			merged := prompt.MergeSegments(all)
			return outputJSON(map[string]any{
				"segments": merged,
				"body":     prompt.Body(merged),
			})
		},
	}
}

func keywordsCmd(store *db.Store) *cli.Command {
	return &cli.Command{
		Name:      "keywords",
		Usage:     "Suggest keywords from a command or a history item",
		ArgsUsage: "[command] (or stdin)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "history", Usage: "History item (job) ID to read the command from"},
		},
		Action: func(c *cli.Context) error {
			input := ops.KeywordsInput{HistoryID: c.String("history")}
			if input.HistoryID == "" {
				command, err := commandText(c)
				if err != nil {
					return outputError(err)
				}
				input.Command = command
			}
			output, err := ops.SuggestKeywords(c.Context, store, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// History

func captureCmd(store *db.Store) *cli.Command {
	return &cli.Command{
		Name:  "capture",
		Usage: "Record a generation in history (--html reads a job card fragment from stdin)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "text", Aliases: []string{"t"}, Usage: "Full command text"},
			&cli.StringFlag{Name: "alt", Usage: "Image alt text"},
			&cli.StringFlag{Name: "job-id", Aliases: []string{"j"}, Usage: "Job ID (UUID)"},
			&cli.StringFlag{Name: "page-url", Usage: "Job page URL"},
			&cli.StringFlag{Name: "image-url", Usage: "Image URL"},
			&cli.StringFlag{Name: "related-card", Usage: "Card this generation was made from"},
			&cli.BoolFlag{Name: "html", Usage: "Read an HTML job card fragment from stdin"},
		},
		Action: func(c *cli.Context) error {
			input := ops.CaptureInput{
				Text:     c.String("text"),
				Alt:      c.String("alt"),
				JobID:    c.String("job-id"),
				PageURL:  c.String("page-url"),
				ImageURL: c.String("image-url"),
			}
			if related := c.String("related-card"); related != "" {
				input.RelatedCardID = &related
			}
			if c.Bool("html") {
				if !stdinHasData() {
					return outputError(errors.NewInvalidRequest("html fragment must be piped via stdin"))
				}
				fragment, err := readStdin(os.Stdin)
				if err != nil {
					return outputError(err)
				}
				input.HTML = fragment
			}

			output, err := ops.Capture(c.Context, store, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

func historyCmd(store *db.Store) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List captured generations, newest first",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: ops.DefaultListLimit, Usage: "Maximum items to return"},
			&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Value: 0, Usage: "Items to skip"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.ListHistory(c.Context, store, ops.ListHistoryInput{
				Limit:  c.Int("limit"),
				Offset: c.Int("offset"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// Cards

func mintCmd(store *db.Store, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "mint",
		Usage:     "Mint a style card from a history item",
		ArgsUsage: "<history-id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Card name (default: first keyword)"},
			&cli.StringFlag{Name: "tags", Usage: "Comma-separated tags"},
			&cli.BoolFlag{Name: "hide-sref", Usage: "Seal --sref in injected prompts"},
			&cli.BoolFlag{Name: "hide-p", Usage: "Seal --p in injected prompts"},
			&cli.StringFlag{Name: "frame", Usage: "Frame ID"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Mint(c.Context, store, cfg, ops.MintInput{
				HistoryID: c.Args().First(),
				Name:      c.String("name"),
				Tags:      parseTags(c.String("tags")),
				HideSref:  c.Bool("hide-sref"),
				HideP:     c.Bool("hide-p"),
				FrameID:   c.String("frame"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

func cardsCmd(store *db.Store) *cli.Command {
	return &cli.Command{
		Name:  "cards",
		Usage: "List cards in the library",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "tier", Usage: "Filter by tier"},
			&cli.StringFlag{Name: "tag", Usage: "Filter by tag"},
			&cli.StringFlag{Name: "search", Aliases: []string{"s"}, Usage: "Name substring"},
			&cli.BoolFlag{Name: "favorite", Usage: "Filter by favorite flag"},
			&cli.BoolFlag{Name: "pinned", Usage: "Filter by hand membership"},
			&cli.StringFlag{Name: "sort", Usage: "updated_at_desc|usage_count_desc|name_asc"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: ops.DefaultListLimit, Usage: "Maximum items to return"},
			&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Value: 0, Usage: "Items to skip"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.ListCards(c.Context, store, ops.ListInput{
				Tier:     c.String("tier"),
				Tag:      c.String("tag"),
				Search:   c.String("search"),
				Favorite: boolIfSet(c, "favorite"),
				Pinned:   boolIfSet(c, "pinned"),
				Sort:     c.String("sort"),
				Limit:    c.Int("limit"),
				Offset:   c.Int("offset"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

func fetchCmd(store *db.Store, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "fetch",
		Usage:     "Fetch a card with its prompt and evolution status",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			output, err := ops.FetchCard(c.Context, store, cfg, ops.FetchInput{ID: c.Args().First()})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

func editCmd(store *db.Store) *cli.Command {
	return &cli.Command{
		Name:      "edit",
		Usage:     "Edit a card",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "New name"},
			&cli.StringFlag{Name: "tags", Usage: "Replace tags (comma-separated, empty clears)"},
			&cli.BoolFlag{Name: "hide-sref", Usage: "Seal or unseal --sref"},
			&cli.BoolFlag{Name: "hide-p", Usage: "Seal or unseal --p"},
			&cli.BoolFlag{Name: "favorite", Usage: "Set the favorite flag"},
			&cli.StringFlag{Name: "color", Usage: "Dominant color"},
			&cli.StringFlag{Name: "frame", Usage: "Frame ID"},
			&cli.StringFlag{Name: "append", Aliases: []string{"a"}, Usage: "Append typed tokens to the body"},
			&cli.IntFlag{Name: "slot", Usage: "Toggle the segment at this index between text and slot"},
			&cli.StringFlag{Name: "slot-label", Usage: "Label for a new slot (default: the segment text)"},
			&cli.StringFlag{Name: "flags", Usage: `Replace parameters, e.g. "--ar 2:3 --stylize 250"`},
		},
		Action: func(c *cli.Context) error {
			input := ops.UpdateInput{
				ID:       c.Args().First(),
				HideSref: boolIfSet(c, "hide-sref"),
				HideP:    boolIfSet(c, "hide-p"),
				Favorite: boolIfSet(c, "favorite"),
			}
			if c.IsSet("name") {
				name := c.String("name")
				input.Name = &name
			}
			if c.IsSet("tags") {
				tags := parseTags(c.String("tags"))
				input.Tags = &tags
			}
			if c.IsSet("color") {
				color := c.String("color")
				input.DominantColor = &color
			}
			if c.IsSet("frame") {
				frame := c.String("frame")
				input.FrameID = &frame
			}
			if c.IsSet("append") {
				text := c.String("append")
				input.AppendText = &text
			}
			if c.IsSet("slot") {
				input.ToggleSlot = &ops.SlotToggle{Index: c.Int("slot"), Label: c.String("slot-label")}
			}
			if c.IsSet("flags") {
				flags := c.String("flags")
				input.Flags = &flags
			}

			output, err := ops.UpdateCard(c.Context, store, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

func evolveCmd(store *db.Store, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "evolve",
		Usage:     "Promote a card to its next tier once it has enough uses",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			output, err := ops.Evolve(c.Context, store, cfg, ops.EvolveInput{ID: c.Args().First()})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

func varyCmd(store *db.Store, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "vary",
		Usage:     "Create a variation from one or more parent cards",
		ArgsUsage: "<parent-id> [parent-id]...",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Variation name"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.CreateVariation(c.Context, store, cfg, ops.VariationInput{
				ParentIDs: c.Args().Slice(),
				Name:      c.String("name"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

func useCmd(store *db.Store, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "use",
		Usage:     "Print a card's prompt and record a use",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "raw", Usage: "Print only the prompt text"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.UseCard(c.Context, store, cfg, ops.UseInput{ID: c.Args().First()})
			if err != nil {
				return outputError(err)
			}
			if c.Bool("raw") {
				_, err := fmt.Fprintln(os.Stdout, output.Prompt)
				return err
			}
			return outputJSON(output)
		},
	}
}

func deleteCmd(store *db.Store) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete a card",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			output, err := ops.DeleteCard(c.Context, store, ops.DeleteInput{ID: c.Args().First()})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// Hand and workbench

func pinCmd(store *db.Store) *cli.Command {
	return &cli.Command{
		Name:      "pin",
		Usage:     "Add a card to the hand",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			output, err := ops.Pin(c.Context, store, ops.PinInput{ID: c.Args().First()})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

func unpinCmd(store *db.Store) *cli.Command {
	return &cli.Command{
		Name:      "unpin",
		Usage:     "Remove a card from the hand",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			output, err := ops.Unpin(c.Context, store, ops.PinInput{ID: c.Args().First()})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

func handCmd(store *db.Store) *cli.Command {
	return &cli.Command{
		Name:  "hand",
		Usage: "List the cards in the hand",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "clear", Usage: "Unpin every card instead"},
		},
		Action: func(c *cli.Context) error {
			if c.Bool("clear") {
				output, err := ops.ClearHand(c.Context, store)
				if err != nil {
					return outputError(err)
				}
				return outputJSON(output)
			}
			output, err := ops.ListHand(c.Context, store)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

func composeCmd(store *db.Store, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "compose",
		Usage:     "Compose hand cards into one prompt (default: the whole hand)",
		ArgsUsage: "[card-id]...",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Value: string(ops.ComposeJoin), Usage: "join|mix"},
			&cli.StringSliceFlag{Name: "fill", Usage: "Slot value as label=value (repeatable)"},
			&cli.BoolFlag{Name: "use", Usage: "Record a use on every composed card"},
		},
		Action: func(c *cli.Context) error {
			fill, err := parseFill(c.StringSlice("fill"))
			if err != nil {
				return outputError(err)
			}
			output, err := ops.Compose(c.Context, store, cfg, ops.ComposeInput{
				CardIDs: c.Args().Slice(),
				Mode:    ops.ComposeMode(c.String("mode")),
				Fill:    fill,
				Use:     c.Bool("use"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// Decks

func deckCmd(store *db.Store) *cli.Command {
	return &cli.Command{
		Name:  "deck",
		Usage: "Manage decks",
		Subcommands: []*cli.Command{
			{
				Name:      "create",
				Usage:     "Create a deck",
				ArgsUsage: "<name> [card-id]...",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "color", Usage: "Theme color"},
				},
				Action: func(c *cli.Context) error {
					input := ops.CreateDeckInput{
						Name:    c.Args().First(),
						CardIDs: c.Args().Tail(),
					}
					if c.IsSet("color") {
						color := c.String("color")
						input.ThemeColor = &color
					}
					output, err := ops.CreateDeck(c.Context, store, input)
					if err != nil {
						return outputError(err)
					}
					return outputJSON(output)
				},
			},
			{
				Name:  "list",
				Usage: "List decks",
				Action: func(c *cli.Context) error {
					output, err := ops.ListDecks(c.Context, store)
					if err != nil {
						return outputError(err)
					}
					return outputJSON(output)
				},
			},
			{
				Name:      "add",
				Usage:     "Add cards to a deck",
				ArgsUsage: "<deck-id> <card-id>...",
				Action: func(c *cli.Context) error {
					output, err := ops.AddToDeck(c.Context, store, ops.AddToDeckInput{
						DeckID:  c.Args().First(),
						CardIDs: c.Args().Tail(),
					})
					if err != nil {
						return outputError(err)
					}
					return outputJSON(output)
				},
			},
		},
	}
}

// Import and export

func exportCmd(store *db.Store, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export cards to a JSONL file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Export file path (default: ~/.atelier/exports/<label>-<timestamp>.jsonl)"},
			&cli.StringFlag{Name: "ids", Usage: "Comma-separated card IDs (default: all)"},
			&cli.BoolFlag{Name: "hand", Usage: "Export only cards in the hand"},
			&cli.StringFlag{Name: "label", Usage: "Default file name prefix"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.ExportCards(c.Context, store, cfg, ops.ExportInput{
				Path:     c.String("path"),
				CardIDs:  parseTags(c.String("ids")),
				HandOnly: c.Bool("hand"),
				Label:    c.String("label"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

func importCmd(store *db.Store, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Import cards from a JSONL file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Required: true, Usage: "Import file path"},
			&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Value: "error", Usage: "Collision mode: error|replace|skip"},
		},
		Action: func(c *cli.Context) error {
			mode := ops.ImportMode(c.String("mode"))
			switch mode {
			case ops.ImportModeError, ops.ImportModeReplace, ops.ImportModeSkip:
			default:
				return outputError(errors.NewInvalidRequest(fmt.Sprintf("invalid mode %q: must be error, replace, or skip", mode)))
			}
			output, err := ops.ImportCards(c.Context, store, cfg, ops.ImportInput{
				Path: c.String("path"),
				Mode: mode,
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// Servers

func serveCmd(store *db.Store, cfg *config.Config, log *logging.Logger) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the local HTTP server for the browser extension and library pages",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Usage: "Interface to listen on (default from config)"},
			&cli.IntFlag{Name: "port", Usage: "Port to listen on (default from config)"},
		},
		Action: func(c *cli.Context) error {
			if c.IsSet("bind") {
				cfg.WebBind = c.String("bind")
			}
			if c.IsSet("port") {
				cfg.WebPort = c.Int("port")
			}
			srv, err := web.NewServer(store, cfg, log, Version)
			if err != nil {
				return outputError(err)
			}
			return web.Run(srv, log)
		},
	}
}

func mcpCmd(store *db.Store, cfg *config.Config, log *logging.Logger) *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Run the MCP server on stdio",
		Action: func(c *cli.Context) error {
			return mcp.Run(store, cfg, log, Version)
		},
	}
}

// Helper functions

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if aErr, ok := errors.As(err); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", aErr.Code, aErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// commandText returns the positional arguments joined by spaces, or piped
// stdin when there are none.
func commandText(c *cli.Context) (string, error) {
	if c.NArg() > 0 {
		return strings.Join(c.Args().Slice(), " "), nil
	}
	if !stdinHasData() {
		return "", errors.NewInvalidRequest("command text is required (argument or stdin)")
	}
	return readStdin(os.Stdin)
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readStdin reads at most maxStdinBytes from r.
func readStdin(r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxStdinBytes+1))
	if err != nil {
		return "", errors.NewInternal(err)
	}
	if len(data) > maxStdinBytes {
		return "", errors.NewFileTooLarge(maxStdinBytes, int64(len(data)))
	}
	return strings.TrimSpace(string(data)), nil
}

// parseTags splits a comma-separated string into a slice of tags.
func parseTags(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// parseFill turns label=value pairs into a slot fill map.
func parseFill(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	fill := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		label, value, ok := strings.Cut(pair, "=")
		label = strings.TrimSpace(label)
		if !ok || label == "" {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("invalid fill %q: expected label=value", pair))
		}
		fill[label] = strings.TrimSpace(value)
	}
	return fill, nil
}

// boolIfSet returns nil unless the flag was given explicitly.
func boolIfSet(c *cli.Context, name string) *bool {
	if !c.IsSet(name) {
		return nil
	}
	v := c.Bool(name)
	return &v
}
