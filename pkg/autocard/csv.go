package autocard

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// ParseCSVToMap turns records into one map per row, keyed by the header row.
// Duplicate headers are renamed to header_2, header_3, ...
func ParseCSVToMap(records [][]string) ([]map[string]string, error) {
	if len(records) == 0 {
		return []map[string]string{}, nil
	}

	headers := make([]string, len(records[0]))
	copy(headers, records[0])
	headerCount := make(map[string]int)

	for i, header := range headers {
		header = strings.TrimSpace(header)
		if count, exists := headerCount[header]; exists {
			headerCount[header]++
			headers[i] = fmt.Sprintf("%s_%d", header, count+2)
		} else {
			headerCount[header] = 0
			headers[i] = header
		}
	}

	result := make([]map[string]string, 0, len(records)-1)

	for i := 1; i < len(records); i++ {
		row := make(map[string]string, len(headers))
		for j, header := range headers {
			if j < len(records[i]) {
				row[header] = strings.TrimSpace(records[i][j])
			} else {
				// Handle missing values
				row[header] = ""
			}
		}
		result = append(result, row)
	}

	return result, nil
}

// normalizeHeader lets "Admission Number", "admission_number" and "admissionNumber" match.
func normalizeHeader(h string) string {
	return strings.NewReplacer(" ", "", "_", "", "-", "").Replace(strings.ToLower(strings.TrimSpace(h)))
}

// StudentsFromCSV reads a student roster for offline batch generation.
// A row without an id gets its 1-based row number.
func StudentsFromCSV(r io.Reader) ([]Student, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("error reading CSV: %w", err)
	}

	rows, err := ParseCSVToMap(records)
	if err != nil {
		return nil, err
	}

	students := make([]Student, 0, len(rows))
	for i, row := range rows {
		get := func(keys ...string) string {
			for header, value := range row {
				for _, k := range keys {
					if normalizeHeader(header) == k {
						return value
					}
				}
			}
			return ""
		}

		s := Student{
			ID:              get("id"),
			StudentCode:     get("studentcode", "code"),
			AdmissionNumber: get("admissionnumber", "admissionno"),
			CardNumber:      get("cardnumber"),
			RollNumber:      get("rollnumber", "rollno"),
			FirstName:       get("firstname"),
			LastName:        get("lastname"),
			FullName:        get("fullname", "name", "studentname"),
			FatherName:      get("fathername"),
			DateOfBirth:     get("dateofbirth", "dob"),
			ClassName:       get("classname", "class"),
			Section:         get("section"),
			BloodGroup:      get("bloodgroup"),
			Phone:           get("phone"),
			Address:         get("address"),
			ValidUntil:      get("validuntil"),
			Picture:         get("pictureurl", "picture", "photo"),
		}
		if s.ID == "" {
			s.ID = fmt.Sprintf("%d", i+1)
		}
		students = append(students, s)
	}

	return students, nil
}
