package autocard

import "fmt"

type FieldID string

type FieldKind string

const (
	// Text bound to subject data, skipped when the subject has no value
	FieldKindText FieldKind = "text"
	// Static text from the layout's fieldValues, falling back to the catalog default
	FieldKindLabel FieldKind = "label"
	FieldKindImage FieldKind = "image"
	FieldKindQR    FieldKind = "qr"
)

// Box reports whether fields of this kind carry a width and height.
func (k FieldKind) Box() bool {
	return k == FieldKindImage || k == FieldKindQR || k == FieldKindLabel
}

type FieldAlign string

const (
	FieldAlignCenter FieldAlign = "center"
	// Start resolves to left for LTR templates and right for RTL templates
	FieldAlignStart FieldAlign = "start"
)

type FieldConfig struct {
	ID          FieldID
	Label       string
	PositionKey string
	SampleText  string
	Kind        FieldKind
	Align       FieldAlign
	Bold        bool
	// Default label text for label fields, bilingual where the platform shows both scripts
	DefaultValue    string
	DefaultPosition Point
	DefaultWidth    float64
	DefaultHeight   float64
	DefaultFontSize float64
	// Enabled in a freshly created layout
	DefaultEnabled bool
}

// DefaultPlacement returns the placement a field gets before the operator moves it.
func (fc FieldConfig) DefaultPlacement() Placement {
	if fc.Kind.Box() {
		return Box{Point: fc.DefaultPosition, Width: fc.DefaultWidth, Height: fc.DefaultHeight}
	}
	return fc.DefaultPosition
}

// Catalog is immutable reference data; order is the draw order.
type Catalog struct {
	Name   string
	Design Preset
	fields []FieldConfig
	byID   map[FieldID]int
	byKey  map[string]int
}

func NewCatalog(name string, design Preset, fields []FieldConfig) Catalog {
	c := Catalog{
		Name:   name,
		Design: design,
		fields: fields,
		byID:   make(map[FieldID]int, len(fields)),
		byKey:  make(map[string]int, len(fields)),
	}
	for i, f := range fields {
		if _, exists := c.byID[f.ID]; exists {
			panic(fmt.Sprintf("duplicate field %s in catalog %s", f.ID, name))
		}
		c.byID[f.ID] = i
		c.byKey[f.PositionKey] = i
	}
	return c
}

func (c Catalog) Fields() []FieldConfig {
	out := make([]FieldConfig, len(c.fields))
	copy(out, c.fields)
	return out
}

func (c Catalog) Lookup(id FieldID) (FieldConfig, bool) {
	i, ok := c.byID[id]
	if !ok {
		return FieldConfig{}, false
	}
	return c.fields[i], true
}

func (c Catalog) ByPositionKey(key string) (FieldConfig, bool) {
	i, ok := c.byKey[key]
	if !ok {
		return FieldConfig{}, false
	}
	return c.fields[i], true
}

func (c Catalog) DefaultEnabled() []FieldID {
	var ids []FieldID
	for _, f := range c.fields {
		if f.DefaultEnabled {
			ids = append(ids, f.ID)
		}
	}
	return ids
}

// ID card fields
const (
	FieldSchoolName      FieldID = "schoolName"
	FieldStudentName     FieldID = "studentName"
	FieldStudentCode     FieldID = "studentCode"
	FieldAdmissionNumber FieldID = "admissionNumber"
	FieldCardNumber      FieldID = "cardNumber"
	FieldRollNumber      FieldID = "rollNumber"
	FieldClassName       FieldID = "className"
	FieldFatherName      FieldID = "fatherName"
	FieldDateOfBirth     FieldID = "dateOfBirth"
	FieldBloodGroup      FieldID = "bloodGroup"
	FieldPhone           FieldID = "phone"
	FieldAddress         FieldID = "address"
	FieldValidUntil      FieldID = "validUntil"
	FieldPhoto           FieldID = "photo"
	FieldQRCode          FieldID = "qrCode"

	FieldNameLabel        FieldID = "nameLabel"
	FieldFatherNameLabel  FieldID = "fatherNameLabel"
	FieldClassLabel       FieldID = "classLabel"
	FieldDateOfBirthLabel FieldID = "dateOfBirthLabel"
	FieldPhoneLabel       FieldID = "phoneLabel"
	FieldBackNotice       FieldID = "backNotice"
)

// Certificate fields
const (
	FieldCourseName        FieldID = "courseName"
	FieldCompletionDate    FieldID = "completionDate"
	FieldCertificateNumber FieldID = "certificateNumber"
	FieldGrade             FieldID = "grade"
	FieldInstructorName    FieldID = "instructorName"
	FieldCertificateTitle  FieldID = "certificateTitle"
	FieldAwardText         FieldID = "awardText"
)

var IDCardCatalog = NewCatalog("id-card", IDCardPreview, []FieldConfig{
	{ID: FieldSchoolName, Label: "School name", PositionKey: "schoolNamePosition", SampleText: "Al Noor International School", Kind: FieldKindLabel, Align: FieldAlignCenter, Bold: true, DefaultValue: "School Name", DefaultPosition: Point{50, 10}, DefaultWidth: 90, DefaultHeight: 12, DefaultFontSize: 14, DefaultEnabled: true},
	{ID: FieldPhoto, Label: "Photo", PositionKey: "photoPosition", Kind: FieldKindImage, DefaultPosition: Point{18, 55}, DefaultWidth: 24, DefaultHeight: 50, DefaultEnabled: true},
	{ID: FieldNameLabel, Label: "Name label", PositionKey: "nameLabelPosition", SampleText: "Name / الاسم", Kind: FieldKindLabel, Align: FieldAlignStart, DefaultValue: "Name / الاسم", DefaultPosition: Point{55, 30}, DefaultFontSize: 8, DefaultEnabled: true},
	{ID: FieldStudentName, Label: "Student name", PositionKey: "studentNamePosition", SampleText: "Ahmad Karimi", Kind: FieldKindText, Align: FieldAlignCenter, Bold: true, DefaultPosition: Point{62, 38}, DefaultFontSize: 12, DefaultEnabled: true},
	{ID: FieldFatherNameLabel, Label: "Father name label", PositionKey: "fatherNameLabelPosition", SampleText: "Father / اسم الأب", Kind: FieldKindLabel, Align: FieldAlignStart, DefaultValue: "Father / اسم الأب", DefaultPosition: Point{55, 47}, DefaultFontSize: 8, DefaultEnabled: true},
	{ID: FieldFatherName, Label: "Father name", PositionKey: "fatherNamePosition", SampleText: "Mahmood Karimi", Kind: FieldKindText, Align: FieldAlignCenter, DefaultPosition: Point{62, 54}, DefaultFontSize: 10, DefaultEnabled: true},
	{ID: FieldClassLabel, Label: "Class label", PositionKey: "classLabelPosition", SampleText: "Class / الصف", Kind: FieldKindLabel, Align: FieldAlignStart, DefaultValue: "Class / الصف", DefaultPosition: Point{55, 63}, DefaultFontSize: 8},
	{ID: FieldClassName, Label: "Class", PositionKey: "classNamePosition", SampleText: "Grade 7 - B", Kind: FieldKindText, Align: FieldAlignCenter, DefaultPosition: Point{62, 70}, DefaultFontSize: 10, DefaultEnabled: true},
	{ID: FieldStudentCode, Label: "Student code", PositionKey: "studentCodePosition", SampleText: "STU-000123", Kind: FieldKindText, Align: FieldAlignCenter, DefaultPosition: Point{18, 88}, DefaultFontSize: 9, DefaultEnabled: true},
	{ID: FieldAdmissionNumber, Label: "Admission number", PositionKey: "admissionNumberPosition", SampleText: "ADM-2024-0042", Kind: FieldKindText, Align: FieldAlignCenter, DefaultPosition: Point{62, 80}, DefaultFontSize: 9},
	{ID: FieldCardNumber, Label: "Card number", PositionKey: "cardNumberPosition", SampleText: "CARD-7781", Kind: FieldKindText, Align: FieldAlignCenter, DefaultPosition: Point{62, 86}, DefaultFontSize: 9},
	{ID: FieldRollNumber, Label: "Roll number", PositionKey: "rollNumberPosition", SampleText: "17", Kind: FieldKindText, Align: FieldAlignCenter, DefaultPosition: Point{62, 92}, DefaultFontSize: 9},
	{ID: FieldDateOfBirthLabel, Label: "Date of birth label", PositionKey: "dateOfBirthLabelPosition", SampleText: "DOB / تاريخ الميلاد", Kind: FieldKindLabel, Align: FieldAlignStart, DefaultValue: "DOB / تاريخ الميلاد", DefaultPosition: Point{20, 20}, DefaultFontSize: 8},
	{ID: FieldDateOfBirth, Label: "Date of birth", PositionKey: "dateOfBirthPosition", SampleText: "2012-04-09", Kind: FieldKindText, Align: FieldAlignCenter, DefaultPosition: Point{50, 20}, DefaultFontSize: 9},
	{ID: FieldBloodGroup, Label: "Blood group", PositionKey: "bloodGroupPosition", SampleText: "B+", Kind: FieldKindText, Align: FieldAlignCenter, DefaultPosition: Point{50, 30}, DefaultFontSize: 9},
	{ID: FieldPhoneLabel, Label: "Phone label", PositionKey: "phoneLabelPosition", SampleText: "Phone / الهاتف", Kind: FieldKindLabel, Align: FieldAlignStart, DefaultValue: "Phone / الهاتف", DefaultPosition: Point{20, 40}, DefaultFontSize: 8},
	{ID: FieldPhone, Label: "Phone", PositionKey: "phonePosition", SampleText: "+93 700 123 456", Kind: FieldKindText, Align: FieldAlignCenter, DefaultPosition: Point{50, 40}, DefaultFontSize: 9},
	{ID: FieldAddress, Label: "Address", PositionKey: "addressPosition", SampleText: "District 4, Kabul", Kind: FieldKindText, Align: FieldAlignCenter, DefaultPosition: Point{50, 50}, DefaultFontSize: 9},
	{ID: FieldValidUntil, Label: "Valid until", PositionKey: "validUntilPosition", SampleText: "2025-06-30", Kind: FieldKindText, Align: FieldAlignCenter, DefaultPosition: Point{50, 60}, DefaultFontSize: 9},
	{ID: FieldBackNotice, Label: "Back notice", PositionKey: "backNoticePosition", SampleText: "If found, please return to the school office.", Kind: FieldKindLabel, Align: FieldAlignCenter, DefaultValue: "If found, please return to the school office.", DefaultPosition: Point{50, 75}, DefaultWidth: 90, DefaultHeight: 10, DefaultFontSize: 8},
	{ID: FieldQRCode, Label: "QR code", PositionKey: "qrCodePosition", Kind: FieldKindQR, DefaultPosition: Point{88, 80}, DefaultWidth: 18, DefaultHeight: 18, DefaultEnabled: true},
})

var CertificateCatalog = NewCatalog("certificate", CertificatePreview, []FieldConfig{
	{ID: FieldCertificateTitle, Label: "Title", PositionKey: "certificateTitlePosition", SampleText: "Certificate of Completion", Kind: FieldKindLabel, Align: FieldAlignCenter, Bold: true, DefaultValue: "Certificate of Completion / شهادة إتمام", DefaultPosition: Point{50, 18}, DefaultWidth: 80, DefaultHeight: 10, DefaultFontSize: 36, DefaultEnabled: true},
	{ID: FieldAwardText, Label: "Award text", PositionKey: "awardTextPosition", SampleText: "This is to certify that", Kind: FieldKindLabel, Align: FieldAlignCenter, DefaultValue: "This is to certify that / نشهد بأن", DefaultPosition: Point{50, 32}, DefaultWidth: 80, DefaultHeight: 6, DefaultFontSize: 18, DefaultEnabled: true},
	{ID: FieldStudentName, Label: "Student name", PositionKey: "studentNamePosition", SampleText: "Ahmad Karimi", Kind: FieldKindText, Align: FieldAlignCenter, Bold: true, DefaultPosition: Point{50, 44}, DefaultFontSize: 32, DefaultEnabled: true},
	{ID: FieldCourseName, Label: "Course name", PositionKey: "courseNamePosition", SampleText: "Introduction to Programming", Kind: FieldKindText, Align: FieldAlignCenter, DefaultPosition: Point{50, 56}, DefaultFontSize: 22, DefaultEnabled: true},
	{ID: FieldGrade, Label: "Grade", PositionKey: "gradePosition", SampleText: "A", Kind: FieldKindText, Align: FieldAlignCenter, DefaultPosition: Point{50, 64}, DefaultFontSize: 16},
	{ID: FieldCompletionDate, Label: "Completion date", PositionKey: "completionDatePosition", SampleText: "2024-06-30", Kind: FieldKindText, Align: FieldAlignCenter, DefaultPosition: Point{25, 82}, DefaultFontSize: 14, DefaultEnabled: true},
	{ID: FieldInstructorName, Label: "Instructor", PositionKey: "instructorNamePosition", SampleText: "Dr. Sara Ahmadi", Kind: FieldKindText, Align: FieldAlignCenter, DefaultPosition: Point{75, 82}, DefaultFontSize: 14, DefaultEnabled: true},
	{ID: FieldCertificateNumber, Label: "Certificate number", PositionKey: "certificateNumberPosition", SampleText: "CERT-2024-0099", Kind: FieldKindText, Align: FieldAlignCenter, DefaultPosition: Point{50, 92}, DefaultFontSize: 11, DefaultEnabled: true},
	{ID: FieldPhoto, Label: "Photo", PositionKey: "photoPosition", Kind: FieldKindImage, DefaultPosition: Point{12, 20}, DefaultWidth: 12, DefaultHeight: 22},
	{ID: FieldQRCode, Label: "QR code", PositionKey: "qrCodePosition", Kind: FieldKindQR, DefaultPosition: Point{90, 84}, DefaultWidth: 10, DefaultHeight: 14, DefaultEnabled: true},
})

// CatalogByName resolves the catalog a template kind renders with.
func CatalogByName(name string) (Catalog, error) {
	switch name {
	case IDCardCatalog.Name:
		return IDCardCatalog, nil
	case CertificateCatalog.Name:
		return CertificateCatalog, nil
	default:
		return Catalog{}, fmt.Errorf("unknown template kind %q", name)
	}
}
