package filemanager_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/banksean/jct/fileobject"
	"github.com/banksean/jct/filemanager"
	"github.com/banksean/jct/group"
	"github.com/banksean/jct/jcterr"
	"github.com/banksean/jct/location"
	"github.com/banksean/jct/pathroot"
)

func write(t *testing.T, fs fileobject.FS, rel, contents string) {
	t.Helper()
	if dir := filepath.Dir(rel); dir != "." {
		if err := fs.MkdirAll(dir, 0o750); err != nil {
			t.Fatal(err)
		}
	}
	f, err := fs.Create(rel)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if _, err := f.Write([]byte(contents)); err != nil {
		t.Fatal(err)
	}
}

func newManager(t *testing.T) (*filemanager.FileManager, *group.Repository) {
	t.Helper()
	repo := group.NewRepository()
	return filemanager.New(repo), repo
}

func TestGetFileForInputFindsExistingFile(t *testing.T) {
	fm, repo := newManager(t)
	root := pathroot.NewInMemory("fm-input")
	write(t, root.FS(), "com/example/Hello.java", "class Hello {}")
	if err := repo.AddPath(context.Background(), location.SourcePath, root); err != nil {
		t.Fatal(err)
	}

	fo, ok, err := fm.GetFileForInput(context.Background(), location.SourcePath, "com.example", "Hello.java")
	if err != nil || !ok {
		t.Fatalf("GetFileForInput: ok=%v err=%v", ok, err)
	}
	if fo.Kind() != fileobject.KindSource {
		t.Fatalf("got kind %v", fo.Kind())
	}
}

func TestGetFileForOutputRejectsNonOutputLocation(t *testing.T) {
	fm, repo := newManager(t)
	root := pathroot.NewInMemory("fm-badout")
	if err := repo.AddPath(context.Background(), location.SourcePath, root); err != nil {
		t.Fatal(err)
	}
	if _, err := fm.GetFileForOutput(context.Background(), location.SourcePath, "", "X.java", nil); err == nil {
		t.Fatal("expected an illegal-operation error writing to a non-output location")
	}
}

func TestGetFileForOutputCreatesNewFile(t *testing.T) {
	fm, repo := newManager(t)
	root := pathroot.NewInMemory("fm-output")
	if err := repo.AddPath(context.Background(), location.ClassOutput, root); err != nil {
		t.Fatal(err)
	}

	fo, err := fm.GetFileForOutput(context.Background(), location.ClassOutput, "com.example", "Hello.class", nil)
	if err != nil {
		t.Fatalf("GetFileForOutput: %v", err)
	}
	if err := fo.WriteAllBytes([]byte("\xCA\xFE\xBA\xBE")); err != nil {
		t.Fatalf("WriteAllBytes: %v", err)
	}

	roundTrip, ok, err := fm.GetFileForInput(context.Background(), location.ClassOutput, "com.example", "Hello.class")
	if err != nil || !ok {
		t.Fatalf("GetFileForInput: ok=%v err=%v", ok, err)
	}
	data, err := roundTrip.ReadAllBytes()
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "\xCA\xFE\xBA\xBE" {
		t.Fatalf("got %x", data)
	}
}

func TestListLocationForModules(t *testing.T) {
	fm, repo := newManager(t)
	root := pathroot.NewInMemory("fm-modules")
	write(t, root.FS(), "mod.a/module-info.java", "module mod.a {\n}\n")
	if err := repo.AddPath(context.Background(), location.ModuleSourcePath, root); err != nil {
		t.Fatal(err)
	}

	refs := fm.ListLocationForModules(location.ModuleSourcePath)
	if len(refs) != 1 || refs[0].Module != "mod.a" {
		t.Fatalf("got %v", refs)
	}
}

func TestFileManagerClosedRejectsOperations(t *testing.T) {
	fm, _ := newManager(t)
	fm.Close()
	_, _, err := fm.GetFileForInput(context.Background(), location.SourcePath, "", "X.java")
	if err != jcterr.ErrFileManagerClosed {
		t.Fatalf("got %v, want ErrFileManagerClosed", err)
	}
}

func TestIsSameFileByURI(t *testing.T) {
	fm, repo := newManager(t)
	root := pathroot.NewInMemory("fm-samefile")
	write(t, root.FS(), "a/Hello.java", "x")
	if err := repo.AddPath(context.Background(), location.SourcePath, root); err != nil {
		t.Fatal(err)
	}
	a, _, err := fm.GetFileForInput(context.Background(), location.SourcePath, "a", "Hello.java")
	if err != nil {
		t.Fatal(err)
	}
	b, _, err := fm.GetFileForInput(context.Background(), location.SourcePath, "a", "Hello.java")
	if err != nil {
		t.Fatal(err)
	}
	if !fm.IsSameFile(a, b) {
		t.Fatal("expected the same resolved path to compare equal")
	}
}
