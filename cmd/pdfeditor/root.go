package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/MalithGihan/pdfeditor/internal/pdfdoc"
	"github.com/MalithGihan/pdfeditor/internal/processor"
	"github.com/MalithGihan/pdfeditor/pkg/types"
)

func newRootCmd(in io.Reader, out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:   "pdfeditor",
		Short: "Replace text in a PDF from a JSON job read on stdin",
		Long: `pdfeditor reads one execution request from stdin, edits the PDF it names
and writes one execution result to stdout. Logs go to stderr.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := setup()
			if err != nil {
				return processor.Write(out, types.Failure("Error during processing: "+err.Error()))
			}
			defer a.close()
			return processor.Run(cmd.Context(), in, out, a.node(), a.log)
		},
	}
	root.SetIn(in)
	root.SetOut(out)
	root.AddCommand(newProbeCmd(out), newVersionCmd(out))
	return root
}

func newProbeCmd(out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "probe",
		Short: "Check that the PDF libraries can read and write a document",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			return processor.Write(out, probeResult(pdfdoc.Probe()))
		},
	}
}

func probeResult(err error) types.ExecutionResult {
	if err != nil {
		return types.Failure("Error: Missing PDF libraries: " + err.Error())
	}
	return types.ExecutionResult{Output: "PDF libraries available", Status: true}
}

func newVersionCmd(out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			_, err := fmt.Fprintln(out, "pdfeditor "+version)
			return err
		},
	}
}
