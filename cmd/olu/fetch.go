package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dgnsrekt/osm-live-updates/internal/osm"
)

func stateCmd() *cobra.Command {
	var sequence int

	cmd := &cobra.Command{
		Use:   "state",
		Short: "Print the upstream replication state",
		Long: `Print the sequence number and timestamp the replication feed is at.

Examples:
  # Current head of the feed
  olu state

  # State published alongside a given diff
  olu state --sequence 6093423`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := newApp()

			var (
				state osm.SyncState
				err   error
			)
			if sequence >= 0 {
				state, err = a.Fetcher.FetchStateForSequence(cmd.Context(), sequence)
			} else {
				state, err = a.Fetcher.FetchCurrentState(cmd.Context())
			}
			if err != nil {
				return err
			}

			return printJSON(state)
		},
	}

	cmd.Flags().IntVar(&sequence, "sequence", -1, "read the state file of this sequence number instead of the head")

	return cmd
}

func diffCmd() *cobra.Command {
	var decompressed bool

	cmd := &cobra.Command{
		Use:   "diff SEQUENCE_NUMBER",
		Short: "Download a replication diff into the cache",
		Long: `Download the gzip diff for a sequence number into the cache directory
and print its path. With --decompress the change XML is printed instead.

Examples:
  olu diff 6093423
  olu diff --decompress 6093423 > change.osc`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seq, err := parseSequenceNumber(args[0])
			if err != nil {
				return err
			}

			a := newApp()
			if !decompressed {
				path, err := a.Fetcher.FetchDiff(cmd.Context(), seq)
				if err != nil {
					return err
				}
				fmt.Println(path)
				return nil
			}

			diff, err := a.Fetcher.LoadDiff(cmd.Context(), seq)
			if err != nil {
				return err
			}
			logger.Debug("diff loaded", zap.String("path", diff.Path), zap.Int("bytes", len(diff.Content)))
			fmt.Print(diff.Content)
			return nil
		},
	}

	cmd.Flags().BoolVar(&decompressed, "decompress", false, "print the decompressed change XML")

	return cmd
}

func nodeCmd() *cobra.Command {
	var element bool

	cmd := &cobra.Command{
		Use:   "node NODE_ID",
		Short: "Fetch a node from the OSM API",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("invalid node id %q", args[0])
			}

			body, err := newApp().Fetcher.FetchNode(cmd.Context(), args[0], element)
			if err != nil {
				return err
			}
			fmt.Println(body)
			return nil
		},
	}

	cmd.Flags().BoolVar(&element, "element", false, "print only the node element")

	return cmd
}

func nodesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "nodes NODE_ID...",
		Short: "Fetch several nodes concurrently from the OSM API",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			elements, err := newApp().Fetcher.FetchNodes(cmd.Context(), args)
			if err != nil {
				return err
			}
			for _, el := range elements {
				fmt.Println(el)
			}
			return nil
		},
	}
}

func wayNodesCmd() *cobra.Command {
	var asXML bool

	cmd := &cobra.Command{
		Use:   "way-nodes FILE",
		Short: "Resolve the locations of the nodes a way references",
		Long: `Read a way element from FILE ("-" for stdin), look up every referenced
node in the SPARQL endpoint and print the resolved locations.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(args[0])
			if err != nil {
				return err
			}

			nodes, err := newApp().Fetcher.FetchNodeReferencesForWayXML(cmd.Context(), text)
			if err != nil {
				return err
			}

			if asXML {
				for _, n := range nodes {
					fmt.Println(n.XML())
				}
				return nil
			}
			return printJSON(nodes)
		},
	}

	cmd.Flags().BoolVar(&asXML, "xml", false, "print node stubs as XML")

	return cmd
}

func parseSequenceNumber(arg string) (int, error) {
	seq, err := strconv.Atoi(arg)
	if err != nil || seq < 0 {
		return 0, fmt.Errorf("invalid sequence number %q", arg)
	}
	return seq, nil
}

func readInput(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		return string(data), err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
