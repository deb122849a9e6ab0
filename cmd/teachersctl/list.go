package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noah-isme/teachers-admin/internal/models"
	"github.com/noah-isme/teachers-admin/internal/service"
)

var (
	listSearch     string
	listPosition   string
	listDepartment string
	listPage       int
	listSize       int
	listJSON       bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List teachers",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	listCmd.Flags().StringVar(&listSearch, "search", "", "filter by name")
	listCmd.Flags().StringVar(&listPosition, "position", "", "filter by position")
	listCmd.Flags().StringVar(&listDepartment, "department", "", "filter by department")
	listCmd.Flags().IntVar(&listPage, "page", 1, "page number, starting at 1")
	listCmd.Flags().IntVar(&listSize, "size", service.DefaultListingPageSize, "page size")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "output the view model as JSON")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	view := service.NewListingView()
	view.SetSearch(listSearch)
	view.SetPosition(listPosition)
	view.SetDepartment(listDepartment)
	view.ChangePage(listPage, listSize)

	board := service.NewNoticeBoard(nil)
	ops := service.NewTeacherOperations(app.teachers, view.Query(),
		service.WithNotifier(board),
		service.WithOperationsLogger(app.logger),
	)
	if err := ops.Load(ctx); err != nil {
		return fmt.Errorf("%s: %w", service.MsgListFailed, err)
	}

	var positions, departments []models.LookupItem
	if items, err := app.lookups.List(ctx, models.LookupPositions); err == nil {
		positions = items
	}
	if items, err := app.lookups.List(ctx, models.LookupDepartments); err == nil {
		departments = items
	}
	vm := service.BuildListingViewModel(view, ops, positions, departments)

	if listJSON {
		data, err := json.MarshalIndent(vm, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal listing: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if vm.Empty {
		cmd.Println(vm.EmptyMessage)
		return nil
	}
	for _, card := range vm.Cards {
		cmd.Printf("  [%d] %s\n", card.ID, card.Name)
		if card.Position != "" || card.Department != "" {
			cmd.Printf("      %s | %s\n", card.Position, card.Department)
		}
	}
	if vm.Pagination != nil {
		cmd.Println()
		cmd.Printf("%s  (page %d/%d)\n", vm.Pagination.RangeLabel, vm.Pagination.Current, vm.Pagination.TotalPages)
	}
	return nil
}
