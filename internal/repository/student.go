package repository

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/SeakMengs/AutoCard/internal/constant"
	"github.com/SeakMengs/AutoCard/internal/util"
	"github.com/SeakMengs/AutoCard/pkg/autocard"
)

type StudentRepository struct {
	*baseRepository
}

type StudentFilter struct {
	Kind     autocard.StudentKind
	ClassID  string
	CourseID string
	// Explicit ids win over the class and course filters
	IDs []string
}

func (sr StudentRepository) GetById(ctx context.Context, kind autocard.StudentKind, id string) (*autocard.Student, error) {
	if kind == "" {
		kind = autocard.StudentKindStudent
	}

	var env envelope[autocard.Student]
	if err := sr.do(ctx, http.MethodGet, "/api/"+string(kind)+"/"+url.PathEscape(id), nil, nil, &env); err != nil {
		return nil, err
	}

	s := env.Data
	sr.withPicture(&s, kind)
	return &s, nil
}

// List walks every page of the filter and returns all students in platform order.
func (sr StudentRepository) List(ctx context.Context, filter StudentFilter) ([]autocard.Student, error) {
	kind := filter.Kind
	if kind == "" {
		kind = autocard.StudentKindStudent
	}

	if len(filter.IDs) > 0 {
		students := make([]autocard.Student, 0, len(filter.IDs))
		for _, id := range filter.IDs {
			s, err := sr.GetById(ctx, kind, id)
			if err != nil {
				return nil, err
			}
			students = append(students, *s)
		}
		return students, nil
	}

	query := url.Values{}
	if filter.ClassID != "" {
		query.Set("classId", filter.ClassID)
	}
	if filter.CourseID != "" {
		query.Set("courseId", filter.CourseID)
	}
	query.Set("pageSize", strconv.Itoa(constant.DefaultPageSize))

	var students []autocard.Student
	for page, totalPage := 1, 1; page <= totalPage; page++ {
		query.Set("page", strconv.Itoa(page))

		var env envelope[[]autocard.Student]
		if err := sr.do(ctx, http.MethodGet, "/api/"+string(kind), query, nil, &env); err != nil {
			return nil, err
		}
		totalPage = util.CalculateTotalPage(env.Total, constant.DefaultPageSize)

		for _, s := range env.Data {
			sr.withPicture(&s, kind)
			students = append(students, s)
		}
	}

	return students, nil
}

func (sr StudentRepository) withPicture(s *autocard.Student, kind autocard.StudentKind) {
	if s.Kind == "" {
		s.Kind = kind
	}
	if s.Picture == "" && s.ID != "" {
		s.Picture = autocard.PictureURL(sr.baseURL, s.Kind, s.ID)
	}
}
