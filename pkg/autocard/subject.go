package autocard

import (
	"fmt"
	"strings"
)

// Subject is the read-only data a layout is rendered with.
type Subject interface {
	// FieldValue returns "" when the subject has no value, the field is then skipped
	FieldValue(id FieldID) string
	// PictureURL returns "" when the subject has no picture
	PictureURL() string
	QRValue(source QRValueSource) string
	// FileStem names exported artifacts
	FileStem() string
}

type StudentKind string

const (
	StudentKindStudent       StudentKind = "students"
	StudentKindCourseStudent StudentKind = "course-students"
)

func ParseStudentKind(s string) (StudentKind, error) {
	switch StudentKind(s) {
	case "", StudentKindStudent:
		return StudentKindStudent, nil
	case StudentKindCourseStudent:
		return StudentKindCourseStudent, nil
	default:
		return "", fmt.Errorf("invalid student kind %q", s)
	}
}

type Student struct {
	ID              string      `json:"id"`
	Kind            StudentKind `json:"kind,omitempty"`
	StudentCode     string      `json:"studentCode"`
	AdmissionNumber string      `json:"admissionNumber"`
	CardNumber      string      `json:"cardNumber"`
	RollNumber      string      `json:"rollNumber"`
	FirstName       string      `json:"firstName"`
	LastName        string      `json:"lastName"`
	FullName        string      `json:"fullName"`
	FatherName      string      `json:"fatherName"`
	DateOfBirth     string      `json:"dateOfBirth"`
	ClassName       string      `json:"className"`
	Section         string      `json:"section"`
	BloodGroup      string      `json:"bloodGroup"`
	Phone           string      `json:"phone"`
	Address         string      `json:"address"`
	ValidUntil      string      `json:"validUntil"`
	// Absolute picture URL, usually built with PictureURL by the upstream client
	Picture string `json:"pictureUrl,omitempty"`
}

func (s Student) Name() string {
	if strings.TrimSpace(s.FullName) != "" {
		return strings.TrimSpace(s.FullName)
	}
	return strings.TrimSpace(strings.Join([]string{s.FirstName, s.LastName}, " "))
}

func (s Student) FieldValue(id FieldID) string {
	switch id {
	case FieldStudentName:
		return s.Name()
	case FieldStudentCode:
		return s.StudentCode
	case FieldAdmissionNumber:
		return s.AdmissionNumber
	case FieldCardNumber:
		return s.CardNumber
	case FieldRollNumber:
		return s.RollNumber
	case FieldFatherName:
		return s.FatherName
	case FieldDateOfBirth:
		return s.DateOfBirth
	case FieldClassName:
		if s.Section != "" && s.ClassName != "" {
			return s.ClassName + " - " + s.Section
		}
		return s.ClassName
	case FieldBloodGroup:
		return s.BloodGroup
	case FieldPhone:
		return s.Phone
	case FieldAddress:
		return s.Address
	case FieldValidUntil:
		return s.ValidUntil
	}
	return ""
}

func (s Student) PictureURL() string {
	return s.Picture
}

func (s Student) QRValue(source QRValueSource) string {
	switch source {
	case QRSourceStudentCode:
		return s.StudentCode
	case QRSourceAdmissionNumber:
		return s.AdmissionNumber
	case QRSourceCardNumber:
		return s.CardNumber
	case QRSourceRollNumber:
		return s.RollNumber
	case QRSourceID:
		return s.ID
	}
	return ""
}

// FileStem prefers the admission number, falling back to the id.
func (s Student) FileStem() string {
	if strings.TrimSpace(s.AdmissionNumber) != "" {
		return strings.TrimSpace(s.AdmissionNumber)
	}
	return s.ID
}

type CertificateData struct {
	ID                string `json:"id"`
	StudentID         string `json:"studentId"`
	StudentCode       string `json:"studentCode"`
	StudentName       string `json:"studentName"`
	CourseName        string `json:"courseName"`
	CompletionDate    string `json:"completionDate"`
	CertificateNumber string `json:"certificateNumber"`
	Grade             string `json:"grade"`
	InstructorName    string `json:"instructorName"`
	Picture           string `json:"pictureUrl,omitempty"`
}

func (c CertificateData) FieldValue(id FieldID) string {
	switch id {
	case FieldStudentName:
		return c.StudentName
	case FieldCourseName:
		return c.CourseName
	case FieldCompletionDate:
		return c.CompletionDate
	case FieldCertificateNumber:
		return c.CertificateNumber
	case FieldGrade:
		return c.Grade
	case FieldInstructorName:
		return c.InstructorName
	case FieldStudentCode:
		return c.StudentCode
	}
	return ""
}

func (c CertificateData) PictureURL() string {
	return c.Picture
}

// Certificates have no admission, card or roll numbers; the certificate number
// stands in for the card number so verification QR codes stay unique.
func (c CertificateData) QRValue(source QRValueSource) string {
	switch source {
	case QRSourceStudentCode:
		return c.StudentCode
	case QRSourceCardNumber:
		return c.CertificateNumber
	case QRSourceID:
		return c.ID
	}
	return ""
}

func (c CertificateData) FileStem() string {
	if strings.TrimSpace(c.CertificateNumber) != "" {
		return strings.TrimSpace(c.CertificateNumber)
	}
	return c.ID
}
