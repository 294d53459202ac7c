package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/olgasafonova/mwapi/wiki"
)

// ── post ─────────────────────────────────────────────────────────────────────

func (a *app) postCmd() *cobra.Command {
	var files []string

	cmd := &cobra.Command{
		Use:   "post key=value ...",
		Short: "Send one API request and print the response",
		Long: `Post sends the given parameters as one API request. Tokens and logins
are handled automatically; errors the client cannot recover from are
printed with their codes.

  mwapi post action=query meta=siteinfo siprop=general
  mwapi post action=upload filename=Test.png --file file=./test.png`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := parseParams(args)
			if err != nil {
				return err
			}
			attachments, closeAll, err := openFiles(files)
			if err != nil {
				return err
			}
			defer closeAll()

			c, err := a.client(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			resp, err := c.PostFiles(cmd.Context(), params, attachments)
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), resp)
		},
	}
	cmd.Flags().StringArrayVar(&files, "file", nil, "attach a file as field=path (repeatable)")
	return cmd
}

// ── list / prop ──────────────────────────────────────────────────────────────

func (a *app) listCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list <module> [key=value ...]",
		Short: "Enumerate a list module across all continuation rounds",
		Example: `  mwapi list categorymembers cmtitle=Category:Physics cmlimit=max
  mwapi list recentchanges rcprop=title|timestamp --limit 100 --format jsonl`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := parseParams(args[1:])
			if err != nil {
				return err
			}
			c, err := a.client(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			return a.printSeq(cmd.OutOrStdout(), c.QueryList(cmd.Context(), args[0], params), limit)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "stop after this many items (0 for all)")
	return cmd
}

func (a *app) propCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "prop <module> [key=value ...]",
		Short: "Query a prop module, merging each page's values across continuation",
		Example: `  mwapi prop langlinks titles=Tokyo|Paris lllimit=max
  mwapi prop revisions titles=Main_Page rvprop=timestamp|user rvlimit=max`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := parseParams(args[1:])
			if err != nil {
				return err
			}
			c, err := a.client(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			return a.printSeq(cmd.OutOrStdout(), c.QueryProp(cmd.Context(), args[0], params), limit)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "stop after this many pages (0 for all)")
	return cmd
}

// ── meta / siteinfo ──────────────────────────────────────────────────────────

func (a *app) metaCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "meta <module> [key=value ...]",
		Short:   "Query a meta module and print its result",
		Example: `  mwapi meta userinfo uiprop=groups|rights`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := parseParams(args[1:])
			if err != nil {
				return err
			}
			c, err := a.client(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			result, err := c.QueryMeta(cmd.Context(), args[0], params)
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), result)
		},
	}
}

func (a *app) siteinfoCmd() *cobra.Command {
	var props []string

	cmd := &cobra.Command{
		Use:   "siteinfo",
		Short: "Print site information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			info, err := c.SiteInfo(cmd.Context(), url.Values{"siprop": {strings.Join(props, "|")}})
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), info)
		},
	}
	cmd.Flags().StringSliceVar(&props, "prop", []string{"general"}, "siprop values")
	return cmd
}

// ── login ────────────────────────────────────────────────────────────────────

func (a *app) loginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Check that the configured bot password can log in",
		Long: `Login authenticates with the bot password from --username and
MEDIAWIKI_PASSWORD, or from the credentials file, and prints the
resulting user.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			ctx := cmd.Context()
			if _, err := c.Login(ctx, a.v.GetString("username"), "", nil); err != nil {
				return err
			}
			info, err := c.UserInfo(ctx, url.Values{"uiprop": {"groups|rights"}})
			if err != nil {
				return err
			}
			if err := a.print(cmd.OutOrStdout(), info); err != nil {
				return err
			}
			return c.Logout(ctx)
		},
	}
}

// ── upload ───────────────────────────────────────────────────────────────────

func (a *app) uploadCmd() *cobra.Command {
	var (
		filename       string
		chunkSize      int64
		ignoreWarnings bool
	)

	cmd := &cobra.Command{
		Use:   "upload <path> [key=value ...]",
		Short: "Upload a file, in chunks when --chunk-size is set",
		Example: `  mwapi upload ./photo.jpg comment=Initial text=[[Category:Photos]]
  mwapi upload ./video.webm --chunk-size 5242880`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := parseParams(args[1:])
			if err != nil {
				return err
			}
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			if filename == "" {
				filename = filepath.Base(args[0])
			}

			c, err := a.client(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			var result map[string]any
			if chunkSize > 0 {
				st, err := f.Stat()
				if err != nil {
					return err
				}
				result, err = c.UploadChunks(cmd.Context(), filename, st.Size(),
					chunksOf(f, st.Size(), chunkSize), ignoreWarnings, params)
				if err != nil {
					return err
				}
			} else {
				if ignoreWarnings {
					params.Set("ignorewarnings", "1")
				}
				result, err = c.UploadFile(cmd.Context(), filename, f, params)
				if err != nil {
					return err
				}
			}
			return a.print(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().StringVar(&filename, "filename", "", "target file name on the wiki (default: base name of path)")
	cmd.Flags().Int64Var(&chunkSize, "chunk-size", 0, "upload in chunks of this many bytes")
	cmd.Flags().BoolVar(&ignoreWarnings, "ignore-warnings", false, "ignore upload warnings such as duplicates")
	return cmd
}

// chunksOf splits r into consecutive sections of at most size bytes
func chunksOf(r io.ReaderAt, total, size int64) iter.Seq[io.Reader] {
	return func(yield func(io.Reader) bool) {
		for off := int64(0); off < total; off += size {
			if !yield(io.NewSectionReader(r, off, min(size, total-off))) {
				return
			}
		}
	}
}

// ── helpers ──────────────────────────────────────────────────────────────────

// parseParams turns key=value arguments into request parameters. A key
// given more than once has its values joined with "|".
func parseParams(args []string) (url.Values, error) {
	params := url.Values{}
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid parameter %q: want key=value", arg)
		}
		if prev := params.Get(key); prev != "" {
			value = prev + "|" + value
		}
		params.Set(key, value)
	}
	return params, nil
}

// openFiles opens field=path specs as multipart attachments
func openFiles(specs []string) ([]wiki.File, func(), error) {
	var (
		files   []wiki.File
		closers []io.Closer
	)
	closeAll := func() {
		for _, c := range closers {
			_ = c.Close()
		}
	}
	for _, spec := range specs {
		field, path, ok := strings.Cut(spec, "=")
		if !ok || field == "" || path == "" {
			closeAll()
			return nil, nil, fmt.Errorf("invalid --file %q: want field=path", spec)
		}
		f, err := os.Open(path)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		closers = append(closers, f)
		files = append(files, wiki.File{Field: field, Name: filepath.Base(path), Reader: f})
	}
	return files, closeAll, nil
}

func (a *app) print(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	if a.format == "json" {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

// printSeq writes items as they arrive in jsonl mode, or as one array
func (a *app) printSeq(w io.Writer, seq iter.Seq2[map[string]any, error], limit int) error {
	var (
		items []map[string]any
		n     int
	)
	for item, err := range seq {
		if err != nil {
			if errors.Is(err, wiki.ErrRawContinue) {
				return fmt.Errorf("%w (drop rawcontinue to use continuation)", err)
			}
			return err
		}
		if a.format == "jsonl" {
			if err := a.print(w, item); err != nil {
				return err
			}
		} else {
			items = append(items, item)
		}
		n++
		if limit > 0 && n >= limit {
			break
		}
	}
	if a.format == "jsonl" {
		return nil
	}
	if items == nil {
		items = []map[string]any{}
	}
	return a.print(w, items)
}
