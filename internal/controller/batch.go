package controller

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/SeakMengs/AutoCard/internal/repository"
	"github.com/SeakMengs/AutoCard/internal/util"
	"github.com/SeakMengs/AutoCard/pkg/autocard"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

type BatchController struct {
	*baseController
}

type BatchRequest struct {
	TemplateID string `json:"templateId" binding:"required,strNotEmpty,cmax=64"`
	// Template kind, id-card unless set
	Kind        string   `json:"kind" binding:"omitempty,oneof=id-card certificate"`
	StudentKind string   `json:"studentKind" binding:"omitempty,oneof=students course-students"`
	StudentIDs  []string `json:"studentIds" binding:"omitempty,dive,strNotEmpty"`
	ClassID     string   `json:"classId"`
	CourseID    string   `json:"courseId"`
	// Used instead of the platform lookup when set
	Students       []autocard.Student `json:"students"`
	CertificateIDs []string           `json:"certificateIds" binding:"omitempty,dive,strNotEmpty"`
	Sides          []string           `json:"sides" binding:"omitempty,dive,oneof=front back"`
	Preset         string             `json:"preset"`
	Padding        float64            `json:"padding" binding:"gte=0"`
	Format         string             `json:"format" binding:"omitempty,oneof=png jpeg jpg"`
	Quality        int                `json:"quality" binding:"omitempty,min=1,max=100"`
}

type batchCardView struct {
	Number   int    `json:"number"`
	ID       string `json:"id"`
	FileStem string `json:"fileStem"`
}

const ErrNoSubjects = "the batch selects no students or certificates"

func (bc BatchController) CreateBatch(ctx *gin.Context) {
	var body BatchRequest
	if err := ctx.ShouldBindJSON(&body); err != nil {
		bc.app.Logger.Debugf("Invalid batch request: %s", util.GenerateErrorMessagesAsString(err, nil))
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid request", util.GenerateErrorMessages(err), nil)
		return
	}

	if bc.app.Storage == nil {
		util.ResponseFailed(ctx, http.StatusServiceUnavailable, "Batch export is not configured", util.GenerateErrorMessages(errors.New("object storage is not configured"), "storage"), nil)
		return
	}

	catalog := autocard.IDCardCatalog
	defaultPreset := autocard.IDCardPrint
	if body.Kind == autocard.CertificateCatalog.Name {
		catalog = autocard.CertificateCatalog
		defaultPreset = autocard.CertificateExport
	}

	preset, err := presetOrDefault(body.Preset, defaultPreset)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid request", util.GenerateErrorMessages(err, "preset"), nil)
		return
	}
	format, err := autocard.ParseImageFormat(body.Format)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid request", util.GenerateErrorMessages(err, "format"), nil)
		return
	}
	sides, err := parseSides(body.Sides)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid request", util.GenerateErrorMessages(err, "sides"), nil)
		return
	}

	reqCtx := ctx.Request.Context()
	tpl, err := bc.getTemplate(reqCtx, catalog, body.TemplateID)
	if err != nil {
		util.ResponseFailed(ctx, statusFor(err), "Failed to load template", util.GenerateErrorMessages(err, "templateId"), nil)
		return
	}

	subjects, err := bc.batchSubjects(ctx, body)
	if err != nil {
		util.ResponseFailed(ctx, statusFor(err), "Failed to load batch data", util.GenerateErrorMessages(err), nil)
		return
	}
	if len(subjects) == 0 {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid request", util.GenerateErrorMessages(errors.New(ErrNoSubjects), "studentIds"), nil)
		return
	}

	batchId, err := util.GenerateNChar(12)
	if err != nil {
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to create batch", util.GenerateErrorMessages(err), nil)
		return
	}

	workDir, err := util.MkdirTemp(bc.app.Config.Render.TempDir, "batch_*")
	if err != nil {
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to create batch", util.GenerateErrorMessages(err), nil)
		return
	}
	defer os.RemoveAll(workDir)

	cards, err := bc.app.BatchGenerator.Generate(reqCtx, autocard.Batch{
		Catalog:     catalog,
		Template:    tpl.Layout,
		Sides:       sides,
		Preset:      preset,
		Padding:     body.Padding,
		Backgrounds: tpl.Backgrounds,
		Format:      format,
		Quality:     body.Quality,
		OutputDir:   filepath.Join(workDir, "cards"),
		Workers:     bc.app.Config.Render.BatchWorkers,
	}, subjects)
	if err != nil {
		bc.app.Logger.Errorf("Batch %s failed: %v", batchId, err)
		util.ResponseFailed(ctx, statusFor(err), "Failed to generate batch", util.GenerateErrorMessages(err), nil)
		return
	}

	zipFile := filepath.Join(workDir, fmt.Sprintf("%s-%s.zip", catalog.Name, batchId))
	pdfFile := filepath.Join(workDir, fmt.Sprintf("%s-%s.pdf", catalog.Name, batchId))
	if err := autocard.Package(cards, zipFile, pdfFile); err != nil {
		bc.app.Logger.Errorf("Batch %s packaging failed: %v", batchId, err)
		util.ResponseFailed(ctx, http.StatusInternalServerError, "Failed to package batch", util.GenerateErrorMessages(err), nil)
		return
	}

	// Upload the archive and the merged PDF side by side
	urls := make([]string, 2)
	g, gctx := errgroup.WithContext(reqCtx)
	for i, file := range []string{zipFile, pdfFile} {
		g.Go(func() error {
			objectName, err := bc.app.Storage.Upload(gctx, file, util.GetBatchDirectoryPath(batchId))
			if err != nil {
				return err
			}
			url, err := bc.app.Storage.PresignedURL(gctx, objectName)
			if err != nil {
				return err
			}
			urls[i] = url
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		bc.app.Logger.Errorf("Batch %s upload failed: %v", batchId, err)
		util.ResponseFailed(ctx, http.StatusBadGateway, "Failed to upload batch", util.GenerateErrorMessages(err), nil)
		return
	}

	views := make([]batchCardView, 0, len(cards))
	for _, c := range cards {
		views = append(views, batchCardView{Number: c.Number, ID: c.ID, FileStem: c.FileStem})
	}

	bc.app.Logger.Infof("Batch %s generated %d %s cards", batchId, len(cards), catalog.Name)
	util.ResponseSuccess(ctx, gin.H{
		"batchId": batchId,
		"count":   len(cards),
		"zipUrl":  urls[0],
		"pdfUrl":  urls[1],
		"cards":   views,
	})
}

func (bc BatchController) batchSubjects(ctx *gin.Context, body BatchRequest) ([]autocard.Subject, error) {
	reqCtx := ctx.Request.Context()
	var subjects []autocard.Subject

	switch {
	case len(body.CertificateIDs) > 0:
		for _, id := range body.CertificateIDs {
			c, err := bc.app.Repository.Certificate.GetById(reqCtx, id)
			if err != nil {
				return nil, fmt.Errorf("certificate %s: %w", id, err)
			}
			subjects = append(subjects, *c)
		}
	case len(body.Students) > 0:
		for i, s := range body.Students {
			if err := bc.checkAssetURL(s.Picture); err != nil {
				return nil, fmt.Errorf("students[%d].pictureUrl: %w", i, err)
			}
			subjects = append(subjects, s)
		}
	default:
		if len(body.StudentIDs) == 0 && body.ClassID == "" && body.CourseID == "" {
			return nil, nil
		}
		kind, err := autocard.ParseStudentKind(body.StudentKind)
		if err != nil {
			return nil, err
		}
		students, err := bc.app.Repository.Student.List(reqCtx, repository.StudentFilter{
			Kind:     kind,
			ClassID:  body.ClassID,
			CourseID: body.CourseID,
			IDs:      body.StudentIDs,
		})
		if err != nil {
			return nil, err
		}
		for _, s := range students {
			subjects = append(subjects, s)
		}
	}

	return subjects, nil
}
