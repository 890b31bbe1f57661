// Package repository 病人档案的文档存取层。
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cognify-data/internal/dates"
	"cognify-data/internal/docstore"
	"cognify-data/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PatientsRepo 病人档案仓库，文档路径 users/{id}
type PatientsRepo struct {
	store  docstore.Store
	logger *zap.Logger
}

// NewPatientsRepo 创建病人仓库
func NewPatientsRepo(store docstore.Store, logger *zap.Logger) *PatientsRepo {
	return &PatientsRepo{store: store, logger: logger}
}

func patientPath(id string) string { return "users/" + id }

// Enroll 登记新病人，服务端生成 ID 与登记日期
func (r *PatientsRepo) Enroll(ctx context.Context, firstName, lastName, dob string, sex domain.Sex, now time.Time) (*domain.Patient, error) {
	patient := &domain.Patient{
		ID:            uuid.NewString(),
		FirstName:     firstName,
		LastName:      lastName,
		DateOfBirth:   dob,
		Sex:           sex,
		EnrolmentDate: dates.ISODate(now),
		CompletedDays: []string{},
	}
	data, err := patientToDoc(patient)
	if err != nil {
		return nil, err
	}
	if err := r.store.SetDocument(ctx, patientPath(patient.ID), data); err != nil {
		return nil, fmt.Errorf("enroll patient: %w", err)
	}
	r.logger.Info("patient enrolled",
		zap.String("user_id", patient.ID),
		zap.String("enrolment_date", patient.EnrolmentDate))
	return patient, nil
}

// Get 读取病人档案，不存在返回 domain.ErrPatientNotFound
func (r *PatientsRepo) Get(ctx context.Context, id string) (*domain.Patient, error) {
	snap, err := r.store.GetDocument(ctx, patientPath(id))
	if err != nil {
		return nil, fmt.Errorf("load patient %s: %w", id, err)
	}
	if !snap.Exists {
		return nil, domain.ErrPatientNotFound
	}
	patient, err := docToPatient(snap.Data)
	if err != nil {
		return nil, fmt.Errorf("decode patient %s: %w", id, err)
	}
	patient.ID = id
	return patient, nil
}

// Save 整档覆盖写，numCompletedDays 写出前从集合推导
func (r *PatientsRepo) Save(ctx context.Context, patient *domain.Patient) error {
	patient.NumCompletedDays = len(patient.CompletedDays)
	data, err := patientToDoc(patient)
	if err != nil {
		return err
	}
	if err := r.store.SetDocument(ctx, patientPath(patient.ID), data); err != nil {
		return fmt.Errorf("save patient %s: %w", patient.ID, err)
	}
	return nil
}

func patientToDoc(p *domain.Patient) (map[string]any, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode patient: %w", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("encode patient: %w", err)
	}
	return doc, nil
}

func docToPatient(doc map[string]any) (*domain.Patient, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var p domain.Patient
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
