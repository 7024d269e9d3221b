package service

import (
	"context"
	"errors"
	"testing"
)

type fakePinger struct{ err error }

func (f *fakePinger) Ping(context.Context) error { return f.err }

func TestLivenessNeverTouchesDependencies(t *testing.T) {
	svc := NewHealthService(&fakePinger{err: errors.New("db down")}, nil, "1.0.0")

	st := svc.Liveness()
	if st.Status != "ok" {
		t.Errorf("status = %q, want ok", st.Status)
	}
	if st.Checks != nil {
		t.Error("liveness must not report dependency checks")
	}
}

func TestReadinessReflectsMasterDB(t *testing.T) {
	db := &fakePinger{}
	svc := NewHealthService(db, nil, "1.0.0")

	st := svc.Readiness(context.Background())
	if st.Status != "ok" || st.Checks["master_db"] != "ok" {
		t.Errorf("ready status = %+v", st)
	}

	db.err = errors.New("connection refused")
	st = svc.Readiness(context.Background())
	if st.Status != "degraded" {
		t.Errorf("status = %q, want degraded", st.Status)
	}
	if st.Checks["master_db"] == "ok" {
		t.Error("failed ping must surface in checks")
	}
}
