package executor

import (
	"bufio"
	"context"
	"io"
	"os/exec"
	"strings"
)

// runProcess executes an external check command and returns its exit code
// and combined output. Stdout and stderr are captured separately so
// interleaving never corrupts either stream, then concatenated.
func runProcess(ctx context.Context, dir string, argv []string) (int, string, error) {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return 0, "", err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return 0, "", err
	}

	var stdoutBuf, stderrBuf strings.Builder

	if err := cmd.Start(); err != nil {
		return 0, "", err
	}

	done := make(chan struct{})
	go func() {
		streamOutput(stdout, &stdoutBuf)
		done <- struct{}{}
	}()
	go func() {
		streamOutput(stderr, &stderrBuf)
		done <- struct{}{}
	}()
	<-done
	<-done

	err = cmd.Wait()
	exitCode := 0
	if err != nil {
		exitErr, ok := err.(*exec.ExitError)
		if !ok {
			return 0, "", err
		}
		exitCode = exitErr.ExitCode()
	}

	return exitCode, stdoutBuf.String() + stderrBuf.String(), nil
}

func streamOutput(r io.Reader, output *strings.Builder) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		output.WriteString(scanner.Text())
		output.WriteByte('\n')
	}
}
