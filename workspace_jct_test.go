package jct_test

import (
	"context"
	"path/filepath"
	"testing"

	jct "github.com/banksean/jct"
	"github.com/banksean/jct/fileobject"
	"github.com/banksean/jct/history"
	"github.com/banksean/jct/inprocess"
	"github.com/banksean/jct/location"
)

func TestWorkspaceCreatePackageAndCompile(t *testing.T) {
	ctx := context.Background()
	ws := jct.NewWorkspace("test")
	defer ws.Close(ctx)

	src, err := ws.CreatePackage(location.SourcePath, jct.RootVariantInMemory)
	if err != nil {
		t.Fatalf("CreatePackage: %v", err)
	}
	pkg, err := src.CreateDirectory("com", "example")
	if err != nil {
		t.Fatalf("CreateDirectory: %v", err)
	}
	file, err := pkg.CreateFile("Hello.java")
	if err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	if err := file.WithContentsString("package com.example; class Hello {}"); err != nil {
		t.Fatalf("WithContentsString: %v", err)
	}

	provider := &inprocess.Provider{
		Releases: []string{"21"},
		Outcome:  true,
		Outputs: []inprocess.ClassResult{
			{BinaryName: "com.example.Hello", Contents: []byte("cafebabe")},
		},
	}

	record, err := jct.Compile(ctx, ws, provider, jct.CompileOptions{Options: []string{"-g"}})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !record.Success {
		t.Fatal("expected success")
	}
	if len(record.Units) != 1 {
		t.Fatalf("got %d units, want 1", len(record.Units))
	}

	fo, ok, err := record.FileManager.GetJavaFileForInput(ctx, location.ClassOutput, "com.example.Hello", fileobject.KindClass)
	if err != nil || !ok {
		t.Fatalf("GetJavaFileForInput: ok=%v err=%v", ok, err)
	}
	data, err := fo.ReadAllBytes()
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "cafebabe" {
		t.Fatalf("got %q", data)
	}
}

func TestCompileRecordsHistoryWhenRecorderConfigured(t *testing.T) {
	ctx := context.Background()
	ws := jct.NewWorkspace("history-ws")
	defer ws.Close(ctx)

	src, err := ws.CreatePackage(location.SourcePath, jct.RootVariantInMemory)
	if err != nil {
		t.Fatalf("CreatePackage: %v", err)
	}
	file, err := src.CreateFile("Hello.java")
	if err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	if err := file.WithContentsString("class Hello {}"); err != nil {
		t.Fatalf("WithContentsString: %v", err)
	}

	dbPath := filepath.Join(t.TempDir(), "jct-compile-history.db")
	recorder, err := history.Open(ctx, dbPath)
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	defer recorder.Close()

	provider := &inprocess.Provider{Outcome: true}
	if _, err := jct.Compile(ctx, ws, provider, jct.CompileOptions{Recorder: recorder}); err != nil {
		t.Fatalf("Compile: %v", err)
	}

	runs, err := recorder.RunsForWorkspace(ctx, "history-ws")
	if err != nil {
		t.Fatalf("RunsForWorkspace: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("got %d recorded runs, want 1", len(runs))
	}
	if !runs[0].Success {
		t.Fatal("expected recorded run to show success")
	}
}

func TestWorkspaceCloseIsIdempotentAndRejectsFurtherUse(t *testing.T) {
	ctx := context.Background()
	ws := jct.NewWorkspace("test")
	if err := ws.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := ws.Close(ctx); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if _, err := ws.CreatePackage(location.SourcePath, jct.RootVariantInMemory); err != jct.ErrWorkspaceClosed {
		t.Fatalf("got %v, want ErrWorkspaceClosed", err)
	}
}

func TestCreateDirectoryRejectsTraversal(t *testing.T) {
	ctx := context.Background()
	ws := jct.NewWorkspace("test")
	defer ws.Close(ctx)

	src, err := ws.CreatePackage(location.SourcePath, jct.RootVariantInMemory)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := src.CreateDirectory("..", "etc"); err == nil {
		t.Fatal("expected an illegal-name error")
	}
}
