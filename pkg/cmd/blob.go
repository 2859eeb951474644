package cmd

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	rollconf "github.com/evstack/near-da/pkg/config"
	"github.com/evstack/near-da/pkg/da/blob"
	"github.com/evstack/near-da/pkg/da/near"
	datypes "github.com/evstack/near-da/pkg/da/types"
	"github.com/evstack/near-da/pkg/rpc/server"
)

const (
	flagOutput   = "output"
	flagAtHeight = "at-height"
	flagRaw      = "raw"
)

// session holds what every blob command needs.
type session struct {
	cfg    rollconf.Config
	logger zerolog.Logger
	client *near.Client
}

func newSession(cmd *cobra.Command) (*session, error) {
	cfg, err := ParseConfig(cmd)
	if err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}
	logger := SetupLogger(cfg.Log)

	client, err := NewClient(cfg, logger, near.NopMetrics())
	if err != nil {
		return nil, fmt.Errorf("failed to create NEAR client: %w", err)
	}
	return &session{cfg: cfg, logger: logger, client: client}, nil
}

// da returns the client, pinned to the height given by --at-height when set.
func (s *session) da(cmd *cobra.Command) datypes.DataAvailability {
	c := s.client
	if height, _ := cmd.Flags().GetUint64(flagAtHeight); height > 0 {
		c = c.ViewAt(height)
	}
	return NewDataAvailability(s.cfg, c, s.logger)
}

func addOutputFlag(cmd *cobra.Command) {
	cmd.Flags().StringP(flagOutput, "o", "text", "Output format (text|json)")
}

func addViewFlags(cmd *cobra.Command) {
	addOutputFlag(cmd)
	cmd.Flags().Uint64(flagAtHeight, 0, "read contract state at this block height instead of the latest final block")
	rollconf.AddFlags(cmd)
}

// SubmitCmd submits one blob read from a file or stdin.
func SubmitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submit <namespace> <file|->",
		Short: "Submit a blob to the NEAR blob contract",
		Long: `Reads the payload from the given file, or from stdin when the file is "-",
builds a version 0 blob under the namespace ("<id>" or "<version>:<id>") and submits it.
Prints the inclusion height and the blob commitment.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ns, err := datypes.ParseNamespace(args[0])
			if err != nil {
				return err
			}
			data, err := readPayload(cmd, args[1])
			if err != nil {
				return err
			}
			b, err := blob.NewBlobV0(ns, data)
			if err != nil {
				return err
			}

			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			res, err := s.da(cmd).Submit(cmd.Context(), []datypes.Blob{b})
			if err != nil {
				return fmt.Errorf("submit failed: %w", err)
			}

			resp := server.SubmitResponse{Height: res.Height, Commitments: []string{b.Commitment.String()}}
			if output, _ := cmd.Flags().GetString(flagOutput); output == "json" {
				return writeJSON(cmd.OutOrStdout(), resp)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "height:     %d\ncommitment: %s\n", resp.Height, resp.Commitments[0])
			return err
		},
	}
	addOutputFlag(cmd)
	rollconf.AddFlags(cmd)
	return cmd
}

// GetCmd fetches the blob stored under a namespace at a height.
func GetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <namespace> <height>",
		Short: "Get the blob stored under a namespace at a height",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ns, err := datypes.ParseNamespace(args[0])
			if err != nil {
				return err
			}
			height, err := strconv.ParseUint(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid height %q: %w", args[1], err)
			}

			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			read, err := s.da(cmd).Get(cmd.Context(), ns, height)
			if err != nil {
				return err
			}
			return printBlob(cmd, read.Blob)
		},
	}
	addViewFlags(cmd)
	cmd.Flags().Bool(flagRaw, false, "write only the payload bytes to stdout")
	return cmd
}

// FastGetCmd fetches a blob by commitment.
func FastGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fast-get <commitment>",
		Short: "Get a blob by its hex commitment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			commitment, err := datypes.ParseCommitment(args[0])
			if err != nil {
				return err
			}

			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			read, err := s.da(cmd).FastGet(cmd.Context(), commitment)
			if err != nil {
				return err
			}
			return printBlob(cmd, read.Blob)
		},
	}
	addViewFlags(cmd)
	cmd.Flags().Bool(flagRaw, false, "write only the payload bytes to stdout")
	return cmd
}

// GetAllCmd lists every blob of a namespace.
func GetAllCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get-all <namespace>",
		Short: "List every blob stored under a namespace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ns, err := datypes.ParseNamespace(args[0])
			if err != nil {
				return err
			}

			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			all, err := s.da(cmd).GetAll(cmd.Context(), ns)
			if err != nil {
				return err
			}

			views := server.NewHeightBlobViews(all)
			if output, _ := cmd.Flags().GetString(flagOutput); output == "json" {
				return writeJSON(cmd.OutOrStdout(), views)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "HEIGHT\tCOMMITMENT\tSIZE")
			for _, v := range views {
				fmt.Fprintf(w, "%d\t%s\t%d\n", v.Height, v.Blob.Commitment, len(v.Blob.Data))
			}
			return w.Flush()
		},
	}
	addViewFlags(cmd)
	return cmd
}

func readPayload(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read payload: %w", err)
	}
	return data, nil
}

func printBlob(cmd *cobra.Command, b datypes.Blob) error {
	if raw, _ := cmd.Flags().GetBool(flagRaw); raw {
		_, err := cmd.OutOrStdout().Write(b.Data)
		return err
	}

	view := server.NewBlobView(b)
	if output, _ := cmd.Flags().GetString(flagOutput); output == "json" {
		return writeJSON(cmd.OutOrStdout(), view)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "namespace:\t%s\n", view.Namespace)
	fmt.Fprintf(w, "share version:\t%d\n", view.ShareVersion)
	fmt.Fprintf(w, "commitment:\t%s\n", view.Commitment)
	fmt.Fprintf(w, "size:\t%d\n", len(view.Data))
	fmt.Fprintf(w, "data:\t%s\n", base64.StdEncoding.EncodeToString(view.Data))
	return w.Flush()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
