package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/kozaktomas/door-dashboard/internal/config"
	"github.com/kozaktomas/door-dashboard/internal/constants"
	"github.com/kozaktomas/door-dashboard/internal/registry"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var retrainCmd = &cobra.Command{
	Use:   "retrain",
	Short: "Recompute face encodings from stored images",
	Long: `Recompute face encodings for users with an image in the faces
directory. Useful after switching to a new face engine model or when
encoding files were lost.

By default only users missing an encoding file are processed.

Examples:
  # Encode users without an encoding file (5 concurrent workers)
  door-dashboard retrain

  # Recompute every encoding, even existing ones
  door-dashboard retrain --force

  # Use different concurrency
  door-dashboard retrain --concurrency 3

  # Limit number of users to process
  door-dashboard retrain --limit 10`,
	RunE: runRetrain,
}

func init() {
	rootCmd.AddCommand(retrainCmd)

	retrainCmd.Flags().Int("concurrency", constants.DefaultConcurrency, "Number of parallel workers")
	retrainCmd.Flags().Int("limit", 0, "Limit number of users to process (0 = no limit)")
	retrainCmd.Flags().Bool("force", false, "Recompute encodings that already exist")
}

func runRetrain(cmd *cobra.Command, args []string) error {
	concurrency := mustGetInt(cmd, "concurrency")
	limit := mustGetInt(cmd, "limit")
	force := mustGetBool(cmd, "force")

	ctx := context.Background()
	svc, st, err := buildService(ctx, config.Load())
	if err != nil {
		return err
	}
	defer st.Close()

	reg := svc.Registry()
	names, err := usersWithImages(reg)
	if err != nil {
		return fmt.Errorf("scanning faces directory: %w", err)
	}
	fmt.Printf("Users with a stored image: %d\n", len(names))

	// Skip users that already have an encoding unless forced.
	var toProcess []string
	for _, name := range names {
		if !force {
			if _, err := os.Stat(reg.EncodingPath(name)); err == nil {
				continue
			}
		}
		toProcess = append(toProcess, name)
		if limit > 0 && len(toProcess) >= limit {
			break
		}
	}

	if len(toProcess) == 0 {
		fmt.Println("All users already have encodings!")
		return nil
	}

	fmt.Printf("Users to process: %d (skipping %d already encoded)\n\n",
		len(toProcess), len(names)-len(toProcess))

	bar := progressbar.NewOptions(len(toProcess),
		progressbar.OptionSetDescription("Encoding faces"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("users"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
	)

	var successCount, errorCount int
	var failed []string
	var mu sync.Mutex

	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for _, name := range toProcess {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			err := svc.Encode(ctx, name)

			mu.Lock()
			if err != nil {
				errorCount++
				failed = append(failed, fmt.Sprintf("%s: %v", name, err))
			} else {
				successCount++
			}
			mu.Unlock()
			bar.Add(1)
		}(name)
	}

	wg.Wait()
	bar.Finish()

	fmt.Printf("\n\nDone: %d encoded, %d failed\n", successCount, errorCount)
	if len(failed) > 0 {
		fmt.Println("Failures:")
		fmt.Println("  " + strings.Join(failed, "\n  "))
	}
	return nil
}

// usersWithImages returns the user names that have an image file in the
// faces directory, in directory order.
func usersWithImages(reg *registry.Registry) ([]string, error) {
	entries, err := os.ReadDir(reg.Dir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var names []string
	seen := make(map[string]bool)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".jpg") {
			continue
		}
		name := registry.UserFromImageFile(entry.Name())
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names, nil
}
