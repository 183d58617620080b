package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func quietEnv(key string) string {
	if key == "LOG_LEVEL" {
		return "error"
	}
	return ""
}

func writeInput(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "transactions.csv")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write input: %v", err)
	}
	return path
}

func TestRun_WritesAccounts(t *testing.T) {
	path := writeInput(t, `type, client, tx, amount
deposit, 1, 1, 1.0
deposit, 2, 2, 2.0
deposit, 1, 3, 2.0
withdrawal, 1, 4, 1.5
withdrawal, 2, 5, 3.0
`)

	var stdout bytes.Buffer
	code := run(context.Background(), []string{path}, quietEnv, &stdout, io.Discard)

	if code != 0 {
		t.Fatalf("Expected exit code 0, got %d", code)
	}

	want := "client,available,held,total,locked\n" +
		"1,1.5000,0.0000,1.5000,false\n" +
		"2,2.0000,0.0000,2.0000,false\n"
	if stdout.String() != want {
		t.Errorf("Expected output:\n%s\ngot:\n%s", want, stdout.String())
	}
}

func TestRun_DisputeAndChargeback(t *testing.T) {
	path := writeInput(t, `type,client,tx,amount
deposit,1,1,10
deposit,1,2,5
dispute,1,1,
chargeback,1,1,
deposit,1,3,100
`)

	var stdout bytes.Buffer
	code := run(context.Background(), []string{path}, quietEnv, &stdout, io.Discard)

	if code != 0 {
		t.Fatalf("Expected exit code 0, got %d", code)
	}

	want := "client,available,held,total,locked\n" +
		"1,5.0000,0.0000,5.0000,true\n"
	if stdout.String() != want {
		t.Errorf("Expected output:\n%s\ngot:\n%s", want, stdout.String())
	}
}

func TestRun_MalformedRowsAreSkipped(t *testing.T) {
	path := writeInput(t, `type,client,tx,amount
deposit,1,1,1.0
deposit,x,2,1.0
deposit,1,3,abc
deposit,1,4,2.0
`)

	var stdout bytes.Buffer
	code := run(context.Background(), []string{path}, quietEnv, &stdout, io.Discard)

	if code != 0 {
		t.Fatalf("Expected exit code 0, got %d", code)
	}

	want := "client,available,held,total,locked\n" +
		"1,3.0000,0.0000,3.0000,false\n"
	if stdout.String() != want {
		t.Errorf("Expected output:\n%s\ngot:\n%s", want, stdout.String())
	}
}

func TestRun_MissingArgument(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), nil, quietEnv, &stdout, &stderr)

	if code != 1 {
		t.Errorf("Expected exit code 1, got %d", code)
	}
	if stdout.Len() != 0 {
		t.Errorf("Expected no output, got %q", stdout.String())
	}
	if stderr.Len() == 0 {
		t.Error("Expected an error message on stderr")
	}
}

func TestRun_UnopenableFile(t *testing.T) {
	var stdout bytes.Buffer
	code := run(context.Background(), []string{filepath.Join(t.TempDir(), "missing.csv")}, quietEnv, &stdout, io.Discard)

	if code != 1 {
		t.Errorf("Expected exit code 1, got %d", code)
	}
	if stdout.Len() != 0 {
		t.Errorf("Expected no output, got %q", stdout.String())
	}
}

func TestRun_BrokenSource(t *testing.T) {
	path := writeInput(t, `type,client,tx,amount
deposit,1,1,1.0
garbage
garbage
garbage
deposit,1,2,1.0
`)

	var stdout bytes.Buffer
	code := run(context.Background(), []string{"-max-malformed", "2", path}, quietEnv, &stdout, io.Discard)

	if code != 1 {
		t.Errorf("Expected exit code 1, got %d", code)
	}
	if stdout.Len() != 0 {
		t.Errorf("Expected no output, got %q", stdout.String())
	}
}

func TestRun_Help(t *testing.T) {
	var stderr bytes.Buffer
	code := run(context.Background(), []string{"-h"}, quietEnv, io.Discard, &stderr)

	if code != 0 {
		t.Errorf("Expected exit code 0, got %d", code)
	}
	if !bytes.Contains(stderr.Bytes(), []byte("Usage: txengine")) {
		t.Errorf("Expected usage on stderr, got %q", stderr.String())
	}
}
