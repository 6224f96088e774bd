package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/baton-project/baton/internal/session"
	"github.com/baton-project/baton/pkg/model"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage tasks in the current session",
}

// loadHeader reads the current session header, exiting when none exists.
func loadHeader() (*session.Engine, string, *model.SessionMetadata) {
	dir := baseDir()
	engine := session.NewEngine()
	path := session.WorkspacePath(dir)

	meta, err := engine.Extract(path)
	if err != nil {
		fmtErr("read workspace: %v", err)
		os.Exit(1)
	}
	if meta == nil {
		fmtErr("no active session header (run 'baton claim' first)")
		os.Exit(1)
	}
	return engine, path, meta
}

var taskAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Add an active task",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		engine, path, meta := loadHeader()
		engine.AddTask(meta, args[0])
		saveHeader(engine, path, meta)
		if !jsonOutput {
			fmt.Printf("Task added: %s\n", args[0])
		}
	},
}

var taskDoneCmd = &cobra.Command{
	Use:   "done <title>",
	Short: "Mark a task completed",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		engine, path, meta := loadHeader()
		if err := engine.CompleteTask(meta, args[0]); err != nil {
			fmtErr("complete task: %v", err)
			os.Exit(1)
		}
		saveHeader(engine, path, meta)
		if !jsonOutput {
			fmt.Printf("Task completed: %s\n", args[0])
		}
	},
}

var taskPauseCmd = &cobra.Command{
	Use:   "pause <title>",
	Short: "Mark a task paused",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		engine, path, meta := loadHeader()
		if err := engine.PauseTask(meta, args[0]); err != nil {
			fmtErr("pause task: %v", err)
			os.Exit(1)
		}
		saveHeader(engine, path, meta)
		if !jsonOutput {
			fmt.Printf("Task paused: %s\n", args[0])
		}
	},
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks in the current session",
	Run: func(cmd *cobra.Command, args []string) {
		_, _, meta := loadHeader()

		if jsonOutput {
			outputJSON(meta.Tasks)
			return
		}
		if len(meta.Tasks) == 0 {
			fmt.Println("No tasks.")
			return
		}
		for _, task := range meta.Tasks {
			line := fmt.Sprintf("  [%s] %s", task.Status, task.Title)
			if task.DurationMinutes > 0 {
				line += fmt.Sprintf(" (%dm)", task.DurationMinutes)
			}
			fmt.Println(line)
		}
	},
}

func saveHeader(engine *session.Engine, path string, meta *model.SessionMetadata) {
	if err := engine.Update(path, meta); err != nil {
		fmtErr("write workspace: %v", err)
		os.Exit(1)
	}
}

func init() {
	taskCmd.AddCommand(taskAddCmd)
	taskCmd.AddCommand(taskDoneCmd)
	taskCmd.AddCommand(taskPauseCmd)
	taskCmd.AddCommand(taskListCmd)
	rootCmd.AddCommand(taskCmd)
}
