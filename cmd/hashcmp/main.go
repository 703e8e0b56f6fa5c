// Command hashcmp prints how far apart two images are under every
// fingerprint algorithm, with and without preprocessing. It helps pick a
// pagediff hashing configuration and --distance for a given scanner.
package main

import (
	"fmt"
	"image"
	"io"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"pagediff/imageprocessor"
)

type comparison struct {
	alg     imageprocessor.HashAlg
	with    int
	without int
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var size int

	cmd := &cobra.Command{
		Use:           "hashcmp <first> <second>",
		Short:         "Compare two images under every fingerprint algorithm",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			fs := afero.NewOsFs()
			first, err := imageprocessor.LoadImage(fs, args[0])
			if err != nil {
				return err
			}
			second, err := imageprocessor.LoadImage(fs, args[1])
			if err != nil {
				return err
			}

			results, err := compareAll(first, second, size)
			if err != nil {
				return err
			}
			return printComparisons(cmd.OutOrStdout(), results)
		},
	}

	cmd.Flags().IntVar(&size, "size", imageprocessor.DefaultHasherConfig().Width, "Hash grid width and height")
	return cmd
}

// compareAll hashes both images with each algorithm. Blockhash is paired with
// difference of Gaussians; the others with the DCT.
func compareAll(first, second image.Image, size int) ([]comparison, error) {
	results := make([]comparison, 0, len(imageprocessor.AllHashAlgs()))
	for _, alg := range imageprocessor.AllHashAlgs() {
		preproc := imageprocessor.PreprocDCT
		if alg == imageprocessor.Blockhash {
			preproc = imageprocessor.PreprocDiffGauss
		}

		with, err := distance(first, second, imageprocessor.HasherConfig{Width: size, Height: size, Alg: alg, Preproc: preproc})
		if err != nil {
			return nil, err
		}
		without, err := distance(first, second, imageprocessor.HasherConfig{Width: size, Height: size, Alg: alg})
		if err != nil {
			return nil, err
		}
		results = append(results, comparison{alg: alg, with: with, without: without})
	}
	return results, nil
}

func distance(first, second image.Image, hc imageprocessor.HasherConfig) (int, error) {
	hasher, err := hc.Hasher()
	if err != nil {
		return 0, err
	}
	return hasher.HashImage(first).Distance(hasher.HashImage(second)), nil
}

func printComparisons(w io.Writer, results []comparison) error {
	for _, r := range results {
		if _, err := fmt.Fprintf(w, "Algo: %s, dist: %d (w/o DCT: %d)\n", r.alg.DisplayName(), r.with, r.without); err != nil {
			return err
		}
	}
	return nil
}
