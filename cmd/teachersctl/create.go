package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/noah-isme/teachers-admin/internal/models"
	"github.com/noah-isme/teachers-admin/internal/service"
	appErrors "github.com/noah-isme/teachers-admin/pkg/errors"
)

var (
	createValues service.TeacherFormValues
	createImage  string
	createPDFs   []string
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a teacher, uploading the photo and documents first",
	Args:  cobra.NoArgs,
	RunE:  runCreate,
}

func init() {
	f := createCmd.Flags()
	f.StringVar(&createValues.FullName, "full-name", "", "full name")
	f.StringVar(&createValues.Email, "email", "", "email address")
	f.StringVar(&createValues.PhoneNumber, "phone", "", "phone number")
	f.StringVar(&createValues.Age, "age", "", "age in years")
	f.StringVar(&createValues.Gender, "gender", "", "male or female")
	f.StringVar(&createValues.Password, "password", "", "initial password")
	f.StringVar(&createValues.DepartmentID, "department", "", "department id")
	f.StringVar(&createValues.LavozmID, "position", "", "position id")
	f.StringVar(&createValues.Biography, "biography", "", "biography")
	f.StringVar(&createValues.Input, "input", "", "free-text note")
	f.StringVar(&createValues.Profession, "profession", "", "profession")
	f.StringVar(&createImage, "image", "", "path to the photo")
	f.StringSliceVar(&createPDFs, "pdf", nil, "path to a PDF document, repeatable")
	rootCmd.AddCommand(createCmd)
}

func runCreate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	board := service.NewNoticeBoard(nil)
	ops := service.NewTeacherOperations(app.teachers, models.PageQuery{},
		service.WithNotifier(board),
		service.WithOperationsLogger(app.logger),
	)

	opts := []service.FormOption{
		service.WithUploadLimit(app.cfg.Uploads.MaxSizeBytes),
		service.WithFormLogger(app.logger),
	}
	departments, derr := app.lookups.List(ctx, models.LookupDepartments)
	positions, perr := app.lookups.List(ctx, models.LookupPositions)
	if derr == nil && perr == nil {
		opts = append(opts, service.WithOfferedOptions(service.IDOptions(departments), service.IDOptions(positions)))
	}

	form := service.NewTeacherForm(ops, service.NewPanel(), opts...)
	form.Panel().Open()
	form.SetValues(createValues)
	defer printNotices(cmd, board)

	if createImage != "" {
		name, contentType, content, err := readAttachment(createImage)
		if err != nil {
			return err
		}
		if _, err := form.StageImage(name, contentType, content); err != nil && !errors.Is(err, appErrors.ErrRejectedUpload) {
			return err
		}
	}
	for _, path := range createPDFs {
		name, contentType, content, err := readAttachment(path)
		if err != nil {
			return err
		}
		// Rejected documents are reported on the notice board and left out.
		if _, err := form.StagePDF(name, contentType, content); err != nil && !errors.Is(err, appErrors.ErrRejectedUpload) {
			return err
		}
	}

	result, err := form.Submit(ctx)
	if err != nil {
		if result != nil && result.Invalid != nil {
			printInvalid(cmd, result.Invalid)
			return errors.New("validation failed")
		}
		if result != nil && len(result.Orphaned) > 0 {
			cmd.PrintErrf("uploaded before failure: %v\n", result.Orphaned)
		}
		return err
	}

	if result.Teacher.ID != 0 {
		cmd.Printf("created teacher %d (%s)\n", result.Teacher.ID, result.Teacher.Name)
	} else {
		cmd.Printf("created teacher %s\n", createValues.FullName)
	}
	if result.ImageURL != "" {
		cmd.Printf("  photo: %s\n", result.ImageURL)
	}
	for _, url := range result.PDFURLs {
		cmd.Printf("  document: %s\n", url)
	}
	return nil
}

func readAttachment(path string) (string, string, []byte, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", "", nil, fmt.Errorf("read attachment: %w", err)
	}
	return filepath.Base(path), http.DetectContentType(content), content, nil
}

func printInvalid(cmd *cobra.Command, invalid service.ValidationErrors) {
	fields := make([]string, 0, len(invalid))
	for field := range invalid {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		cmd.PrintErrf("  %s: %s\n", field, invalid[field])
	}
}

func printNotices(cmd *cobra.Command, board *service.NoticeBoard) {
	for _, n := range board.Notices() {
		cmd.PrintErrf("[%s] %s\n", n.Level, n.Message)
	}
}
