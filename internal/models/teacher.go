package models

import "strings"

// Teacher is a directory entry as returned by the teachers backend.
type Teacher struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Lavozim        string `json:"lavozim"`
	Email          string `json:"email"`
	ImgURL         string `json:"imgUrl"`
	Input          string `json:"input"`
	PhoneNumber    string `json:"phoneNumber"`
	DepartmentName string `json:"departmentName"`
}

// TeacherPage is one page of the teachers listing.
type TeacherPage = PageResult[Teacher]

// TeacherCreateInput is the payload accepted by the backend's saveUser endpoint.
type TeacherCreateInput struct {
	FullName     string   `json:"fullName"`
	PhoneNumber  string   `json:"phoneNumber"`
	Biography    string   `json:"biography"`
	ImgURL       string   `json:"imgUrl"`
	FileURL      string   `json:"fileUrl,omitempty"`
	PDFURLs      []string `json:"pdfUrls"`
	Input        string   `json:"input"`
	Profession   string   `json:"profession"`
	LavozmID     int64    `json:"lavozmId"`
	Email        string   `json:"email"`
	Age          int      `json:"age"`
	Gender       bool     `json:"gender"`
	Password     string   `json:"password"`
	DepartmentID int64    `json:"departmentId"`
}

// Redacted returns a copy safe for logging.
func (in TeacherCreateInput) Redacted() TeacherCreateInput {
	out := in
	if out.Password != "" {
		out.Password = strings.Repeat("*", 6)
	}
	if in.PDFURLs != nil {
		out.PDFURLs = append([]string(nil), in.PDFURLs...)
	}
	return out
}
