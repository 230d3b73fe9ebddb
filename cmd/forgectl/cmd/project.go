package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/taskforge-hq/taskforge/internal/models"
	"github.com/taskforge-hq/taskforge/internal/stats"
	"github.com/taskforge-hq/taskforge/internal/storage"
)

// defaultDBPath is the default database path, can be overridden via TASKFORGE_DB_PATH env var
var defaultDBPath = "data/taskforge.db"

func init() {
	if envPath := os.Getenv("TASKFORGE_DB_PATH"); envPath != "" {
		defaultDBPath = envPath
	}
}

var (
	projectDBPath     string
	projectName       string
	projectID         string
	projectDesc       string
	projectOwner      string
	projectForce      bool
	projectUsername   string
	projectUserID     string
	projectMemberRole string
)

// projectCmd represents the project command group
var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Project management commands",
	Long: `Commands for managing TaskForge projects.

Projects group tasks and control who may work on them. These commands
operate directly on the database file and bypass the API's membership
checks, so they are intended for administrators.

Examples:
  # List all projects
  forgectl project list

  # Create a project owned by alice
  forgectl project create --name my-project --owner alice

  # Show project details
  forgectl project show --id 550e8400-e29b-41d4-a716-446655440000

  # Add a member
  forgectl project add-member --id <project-id> --username bob --role member`,
}

// projectListCmd lists all projects
var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all projects",
	Long: `List all projects in the database.

Displays project ID, name, status, member count, and creation date.

Example:
  forgectl project list`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openDatabase(projectDBPath)
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := context.Background()
		projects, err := store.Projects().List(ctx)
		if err != nil {
			return fmt.Errorf("list projects: %w", err)
		}

		if len(projects) == 0 {
			fmt.Println("No projects found.")
			return nil
		}

		// Print header
		fmt.Printf("\n%-36s  %-20s  %-10s  %-8s  %s\n",
			"ID", "NAME", "STATUS", "MEMBERS", "CREATED")
		fmt.Println(strings.Repeat("-", 90))

		for _, p := range projects {
			members, err := store.Projects().GetMembers(ctx, p.ID)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Warning: could not fetch members for %s: %v\n", p.Name, err)
			}
			fmt.Printf("%-36s  %-20s  %-10s  %-8d  %s\n",
				p.ID,
				truncate(p.Name, 20),
				p.Status,
				len(members),
				p.CreatedAt.Format("2006-01-02 15:04"),
			)
		}
		fmt.Printf("\nTotal: %d project(s)\n", len(projects))

		return nil
	},
}

// projectCreateCmd creates a new project
var projectCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new project",
	Long: `Create a new project in the database.

The owner is identified by username and becomes the project's manager.

Example:
  forgectl project create --name my-project --owner alice --description "My project"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if projectName == "" {
			return fmt.Errorf("--name is required")
		}
		if projectOwner == "" {
			return fmt.Errorf("--owner is required")
		}

		store, err := openDatabase(projectDBPath)
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := context.Background()

		owner, err := store.Users().GetByUsername(ctx, projectOwner)
		if err != nil {
			return fmt.Errorf("find owner: %w", err)
		}
		if owner == nil {
			return fmt.Errorf("owner not found: %s", projectOwner)
		}

		project := models.NewProject(
			strings.TrimSpace(projectName),
			strings.TrimSpace(projectDesc),
			owner.ID,
		)
		project.ID = uuid.New().String()

		if err := store.Projects().Create(ctx, project); err != nil {
			return fmt.Errorf("create project: %w", err)
		}

		fmt.Printf("\nProject created successfully:\n")
		fmt.Printf("  ID:          %s\n", project.ID)
		fmt.Printf("  Name:        %s\n", project.Name)
		fmt.Printf("  Description: %s\n", project.Description)
		fmt.Printf("  Owner:       %s\n", owner.Username)
		fmt.Printf("  Status:      %s\n", project.Status)

		return nil
	},
}

// projectShowCmd shows project details
var projectShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show project details",
	Long: `Show detailed information about a project.

Example:
  forgectl project show --id 550e8400-e29b-41d4-a716-446655440000`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openDatabase(projectDBPath)
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := context.Background()
		project, err := resolveProject(ctx, store.Projects(), projectID)
		if err != nil {
			return err
		}

		owner, err := store.Users().GetByID(ctx, project.OwnerID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not fetch owner: %v\n", err)
		}
		ownerName := project.OwnerID
		if owner != nil {
			ownerName = owner.Username
		}

		fmt.Println("\nProject Details:")
		fmt.Printf("  ID:          %s\n", project.ID)
		fmt.Printf("  Name:        %s\n", project.Name)
		fmt.Printf("  Description: %s\n", project.Description)
		fmt.Printf("  Owner:       %s\n", ownerName)
		fmt.Printf("  Status:      %s\n", project.Status)
		if !project.StartDate.IsZero() {
			fmt.Printf("  Start:       %s\n", project.StartDate.Format("2006-01-02"))
		}
		if !project.EndDate.IsZero() {
			fmt.Printf("  End:         %s\n", project.EndDate.Format("2006-01-02"))
		}
		fmt.Printf("  Members:     %d\n", len(project.Members))
		fmt.Printf("  Created:     %s\n", project.CreatedAt.Format("2006-01-02 15:04:05"))
		fmt.Printf("  Updated:     %s\n", project.UpdatedAt.Format("2006-01-02 15:04:05"))

		return nil
	},
}

// projectDeleteCmd deletes a project and its tasks
var projectDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete a project",
	Long: `Delete a project from the database.

All tasks in the project are deleted as well, along with the project's
memberships. This cannot be undone.

Examples:
  forgectl project delete --id <project-id>
  forgectl project delete --id <project-id> --force  # skip confirmation`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openDatabase(projectDBPath)
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := context.Background()
		project, err := resolveProject(ctx, store.Projects(), projectID)
		if err != nil {
			return err
		}

		if !projectForce {
			fmt.Printf("Delete project '%s' and all its tasks? [y/N]: ", project.Name)
			var confirm string
			fmt.Scanln(&confirm)
			if !strings.EqualFold(confirm, "y") {
				fmt.Println("Canceled.")
				return nil
			}
		}

		// Tasks go first so a failure leaves the project intact.
		removed, err := store.Tasks().DeleteByProject(ctx, project.ID)
		if err != nil {
			return fmt.Errorf("delete project tasks: %w", err)
		}

		if err := store.Projects().Delete(ctx, project.ID); err != nil {
			return fmt.Errorf("delete project: %w", err)
		}

		fmt.Printf("Project deleted: %s (%d task(s) removed)\n", project.Name, removed)
		return nil
	},
}

// projectMembersCmd lists project members
var projectMembersCmd = &cobra.Command{
	Use:   "members",
	Short: "List project members",
	Long: `List all members of a project.

The owner is shown separately; owners are not stored as member rows.

Example:
  forgectl project members --id 550e8400-e29b-41d4-a716-446655440000`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openDatabase(projectDBPath)
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := context.Background()
		project, err := resolveProject(ctx, store.Projects(), projectID)
		if err != nil {
			return err
		}

		fmt.Printf("\nMembers of project '%s':\n\n", project.Name)
		fmt.Printf("Owner: %s\n\n", project.OwnerID)

		if len(project.Members) == 0 {
			fmt.Println("No members found.")
			return nil
		}

		fmt.Printf("%-36s  %-20s  %-30s  %s\n", "USER ID", "USERNAME", "EMAIL", "ROLE")
		fmt.Println(strings.Repeat("-", 100))

		for _, m := range project.Members {
			fmt.Printf("%-36s  %-20s  %-30s  %s\n",
				m.UserID, m.Username, m.Email, m.Role)
		}
		fmt.Printf("\nTotal: %d member(s)\n", len(project.Members))

		return nil
	},
}

// projectAddMemberCmd adds a member to a project
var projectAddMemberCmd = &cobra.Command{
	Use:   "add-member",
	Short: "Add or update a project member",
	Long: `Add a user to a project or update their role.

If the user is already a member, their role will be updated.

Available roles:
  - manager: Can edit the project, manage members, and manage all tasks
  - member: Can create tasks and work on assigned tasks

Examples:
  forgectl project add-member --id <project-id> --username alice --role manager
  forgectl project add-member --id <project-id> --user-id abc123 --role member`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openDatabase(projectDBPath)
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := context.Background()
		project, err := resolveProject(ctx, store.Projects(), projectID)
		if err != nil {
			return err
		}

		user, err := resolveUser(ctx, store.Users(), projectUsername, projectUserID)
		if err != nil {
			return err
		}

		if project.IsOwner(user.ID) {
			return fmt.Errorf("user is the project owner and already has manager rights")
		}

		role := models.ProjectRole(projectMemberRole)
		if role != models.ProjectRoleManager && role != models.ProjectRoleMember {
			return fmt.Errorf("invalid role: %s (use: manager, member)", projectMemberRole)
		}

		if err := store.Projects().AddMember(ctx, project.ID, user.ID, role); err != nil {
			return fmt.Errorf("add member: %w", err)
		}

		fmt.Printf("Added %s to project '%s' as %s\n", user.Username, project.Name, role)
		return nil
	},
}

// projectRemoveMemberCmd removes a member from a project
var projectRemoveMemberCmd = &cobra.Command{
	Use:   "remove-member",
	Short: "Remove a member from project",
	Long: `Remove a user from a project.

The owner cannot be removed.

Examples:
  forgectl project remove-member --id <project-id> --username alice
  forgectl project remove-member --id <project-id> --user-id abc123`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openDatabase(projectDBPath)
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := context.Background()
		project, err := resolveProject(ctx, store.Projects(), projectID)
		if err != nil {
			return err
		}

		user, err := resolveUser(ctx, store.Users(), projectUsername, projectUserID)
		if err != nil {
			return err
		}

		if project.IsOwner(user.ID) {
			return fmt.Errorf("cannot remove the project owner")
		}

		if err := store.Projects().RemoveMember(ctx, project.ID, user.ID); err != nil {
			return fmt.Errorf("remove member: %w", err)
		}

		fmt.Printf("Removed %s from project '%s'\n", user.Username, project.Name)
		return nil
	},
}

// projectStatsCmd prints task statistics for a project
var projectStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show project task statistics",
	Long: `Show aggregate task statistics for a project.

Counts tasks by status and priority, and reports overdue, unassigned,
hour totals, and the completion rate.

Example:
  forgectl project stats --id 550e8400-e29b-41d4-a716-446655440000`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openDatabase(projectDBPath)
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := context.Background()
		project, err := resolveProject(ctx, store.Projects(), projectID)
		if err != nil {
			return err
		}

		tasks, err := store.Tasks().ListByProject(ctx, project.ID)
		if err != nil {
			return fmt.Errorf("list tasks: %w", err)
		}

		s := stats.Compute(tasks, time.Now())

		if GetOutput() == "json" {
			data, _ := json.MarshalIndent(s, "", "  ")
			fmt.Println(string(data))
			return nil
		}

		fmt.Printf("\nStatistics for project '%s':\n\n", project.Name)
		fmt.Printf("  Total tasks:     %d\n", s.TotalTasks)
		for _, st := range models.TaskStatuses {
			fmt.Printf("    %-13s  %d\n", string(st)+":", s.ByStatus[st])
		}
		fmt.Printf("  Overdue:         %d\n", s.Overdue)
		fmt.Printf("  Unassigned:      %d\n", s.Unassigned)
		fmt.Printf("  Estimated hours: %.1f\n", s.EstimatedHours)
		fmt.Printf("  Actual hours:    %.1f\n", s.ActualHours)
		fmt.Printf("  Completion rate: %.0f%%\n", s.CompletionRate*100)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(projectCmd)
	projectCmd.AddCommand(projectListCmd)
	projectCmd.AddCommand(projectCreateCmd)
	projectCmd.AddCommand(projectShowCmd)
	projectCmd.AddCommand(projectDeleteCmd)
	projectCmd.AddCommand(projectMembersCmd)
	projectCmd.AddCommand(projectAddMemberCmd)
	projectCmd.AddCommand(projectRemoveMemberCmd)
	projectCmd.AddCommand(projectStatsCmd)

	// DB flag for all commands (optional, defaults to ./data/taskforge.db)
	allCmds := []*cobra.Command{
		projectListCmd, projectCreateCmd, projectShowCmd,
		projectDeleteCmd, projectMembersCmd,
		projectAddMemberCmd, projectRemoveMemberCmd, projectStatsCmd,
	}
	for _, cmd := range allCmds {
		cmd.Flags().StringVar(&projectDBPath, "db", defaultDBPath, "path to SQLite database file")
	}

	// Create flags
	projectCreateCmd.Flags().StringVar(&projectName, "name", "", "project name (required)")
	projectCreateCmd.Flags().StringVar(&projectDesc, "description", "", "project description")
	projectCreateCmd.Flags().StringVar(&projectOwner, "owner", "", "username of the project owner (required)")
	projectCreateCmd.MarkFlagRequired("name")
	projectCreateCmd.MarkFlagRequired("owner")

	// Show flags
	projectShowCmd.Flags().StringVar(&projectID, "id", "", "project ID")

	// Delete flags
	projectDeleteCmd.Flags().StringVar(&projectID, "id", "", "project ID")
	projectDeleteCmd.Flags().BoolVar(&projectForce, "force", false, "skip confirmation prompt")

	// Members flags
	projectMembersCmd.Flags().StringVar(&projectID, "id", "", "project ID")

	// Add-member flags
	projectAddMemberCmd.Flags().StringVar(&projectID, "id", "", "project ID")
	projectAddMemberCmd.Flags().StringVar(&projectUsername, "username", "", "username to add")
	projectAddMemberCmd.Flags().StringVar(&projectUserID, "user-id", "", "user ID to add")
	projectAddMemberCmd.Flags().StringVar(&projectMemberRole, "role", "member", "role: manager, member")

	// Remove-member flags
	projectRemoveMemberCmd.Flags().StringVar(&projectID, "id", "", "project ID")
	projectRemoveMemberCmd.Flags().StringVar(&projectUsername, "username", "", "username to remove")
	projectRemoveMemberCmd.Flags().StringVar(&projectUserID, "user-id", "", "user ID to remove")

	// Stats flags
	projectStatsCmd.Flags().StringVar(&projectID, "id", "", "project ID")
}

// resolveProject finds a project by ID.
func resolveProject(ctx context.Context, repo storage.ProjectRepository, id string) (*models.Project, error) {
	if id == "" {
		return nil, fmt.Errorf("--id is required")
	}
	p, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	if p == nil {
		return nil, fmt.Errorf("project not found: %s", id)
	}
	return p, nil
}

// resolveUser finds a user by username or ID.
func resolveUser(ctx context.Context, repo storage.UserRepository, username, userID string) (*models.User, error) {
	if userID == "" && username == "" {
		return nil, fmt.Errorf("specify --username or --user-id")
	}
	if userID != "" {
		u, err := repo.GetByID(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("get user: %w", err)
		}
		if u == nil {
			return nil, fmt.Errorf("user not found: %s", userID)
		}
		return u, nil
	}
	u, err := repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if u == nil {
		return nil, fmt.Errorf("user not found: %s", username)
	}
	return u, nil
}

// truncate truncates a string to the given length.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-2] + ".."
}
