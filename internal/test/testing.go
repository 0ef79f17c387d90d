// Copyright 2015 Aleksandr Demakin. All rights reserved.

// Package shmem_testing contains helpers for tests, which check
// cross-process behaviour by spawning auxiliary programs.
package shmem_testing

import (
	"bytes"
	"fmt"
	"io"
	"os/exec"
	"syscall"
)

// TestAppResult is a result of a 'go run' program launch.
type TestAppResult struct {
	Output string
	Err    error
}

// StringToBytes takes an input string in a 2-hex-symbol per byte format
// and returns the corresponding byte array.
// The input must not contain any symbols except [A-F0-9].
func StringToBytes(input string) ([]byte, error) {
	if len(input)%2 != 0 {
		return nil, fmt.Errorf("invalid byte array len")
	}
	var err error
	var b byte
	buff := bytes.NewBuffer(nil)
	for err == nil {
		if len(input) < 2 {
			err = io.EOF
		} else if _, err = fmt.Sscanf(input[:2], "%X", &b); err == nil {
			buff.WriteByte(b)
			input = input[2:]
		}
	}
	if err != nil && err != io.EOF {
		return nil, err
	}
	return buff.Bytes(), nil
}

// BytesToString converts a byte slice into its string representation,
// 2 upper-case hex symbols per byte.
func BytesToString(data []byte) string {
	buff := bytes.NewBuffer(nil)
	for _, value := range data {
		if value < 16 { // force leading 0 for 1-digit values
			buff.WriteString("0")
		}
		buff.WriteString(fmt.Sprintf("%X", value))
	}
	return buff.String()
}

// RunTestApp starts a go program via 'go run' and waits for it to
// complete, returning its combined output.
func RunTestApp(args []string) (result TestAppResult) {
	cmd, buff, err := startTestApp(args)
	if err != nil {
		result.Err = err
		return result
	}
	return waitForCommand(cmd, buff)
}

func startTestApp(args []string) (*exec.Cmd, *bytes.Buffer, error) {
	args = append([]string{"run"}, args...)
	cmd := exec.Command("go", args...)
	buff := bytes.NewBuffer(nil)
	cmd.Stderr = buff
	cmd.Stdout = buff
	if err := cmd.Start(); err != nil {
		return nil, nil, err
	}
	return cmd, buff, nil
}

func waitForCommand(cmd *exec.Cmd, buff *bytes.Buffer) (result TestAppResult) {
	if result.Err = cmd.Wait(); result.Err != nil {
		if exiterr, ok := result.Err.(*exec.ExitError); ok {
			if status, ok := exiterr.Sys().(syscall.WaitStatus); ok {
				result.Err = fmt.Errorf("%v, status code = %d", result.Err, status)
			}
		}
	} else if !cmd.ProcessState.Success() {
		result.Err = fmt.Errorf("process has exited with an error")
	}
	result.Output = buff.String()
	return result
}
