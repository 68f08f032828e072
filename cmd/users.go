package cmd

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/kozaktomas/door-dashboard/internal/config"
	"github.com/spf13/cobra"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage registered users",
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered users",
	Long: `List all registered users, merging database records with the faces
directory. Users with a face encoding on disk are marked as trained.`,
	RunE: runUsersList,
}

var usersAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a user without a face capture",
	Long: `Add a user to the database without a face capture. The user stays
untrained until a photo is registered through the dashboard.`,
	Args: cobra.ExactArgs(1),
	RunE: runUsersAdd,
}

var usersDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a user",
	Long: `Delete a user from the database and remove their image and face
encoding from the faces directory.`,
	Args: cobra.ExactArgs(1),
	RunE: runUsersDelete,
}

func init() {
	rootCmd.AddCommand(usersCmd)
	usersCmd.AddCommand(usersListCmd)
	usersCmd.AddCommand(usersAddCmd)
	usersCmd.AddCommand(usersDeleteCmd)
}

func runUsersList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	svc, st, err := buildService(ctx, config.Load())
	if err != nil {
		return err
	}
	defer st.Close()

	users, err := svc.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("listing users: %w", err)
	}

	if len(users) == 0 {
		fmt.Println("No registered users.")
		return nil
	}

	rows := make([][]string, 0, len(users))
	for _, u := range users {
		trained := "no"
		if u.Trained {
			trained = "yes"
		}
		rows = append(rows, []string{
			u.Name,
			trained,
			formatTimestamp(u.CreatedAt),
			formatTimestamp(u.LastSeen),
			strconv.Itoa(u.AccessCount),
		})
	}

	fmt.Println(renderTable(
		[]string{"Name", "Trained", "Created", "Last seen", "Accesses"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
	))
	fmt.Printf("%d users\n", len(users))
	return nil
}

func runUsersAdd(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	svc, st, err := buildService(ctx, config.Load())
	if err != nil {
		return err
	}
	defer st.Close()

	name := args[0]
	if err := svc.AddUser(ctx, name); err != nil {
		return fmt.Errorf("adding user: %w", err)
	}
	fmt.Printf("User %s added (untrained, no face capture yet)\n", name)
	return nil
}

func runUsersDelete(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	svc, st, err := buildService(ctx, config.Load())
	if err != nil {
		return err
	}
	defer st.Close()

	name := args[0]
	if err := svc.Delete(ctx, name); err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	fmt.Printf("User %s deleted\n", name)
	return nil
}

// formatTimestamp renders an optional timestamp, "-" when unknown.
func formatTimestamp(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("2006-01-02 15:04:05")
}
