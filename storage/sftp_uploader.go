package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"flight-scraper/utils"
)

// SFTPConfig describes the remote drop for exported files
type SFTPConfig struct {
	Host           string
	Port           int
	User           string
	Pass           string
	RemoteDir      string
	// KnownHostsFile enables host key verification; empty accepts any key
	KnownHostsFile string
}

// SFTPUploader copies exported result files to a remote server
type SFTPUploader struct {
	cfg     SFTPConfig
	hostKey ssh.HostKeyCallback
	logger  *utils.Logger
}

// NewSFTPUploader validates cfg and fills in defaults
func NewSFTPUploader(cfg SFTPConfig, logger *utils.Logger) (*SFTPUploader, error) {
	if cfg.Host == "" || cfg.User == "" || cfg.Pass == "" {
		return nil, fmt.Errorf("sftp: missing SFTP_HOST / SFTP_USER / SFTP_PASS")
	}
	if cfg.Port <= 0 {
		cfg.Port = 22
	}
	if cfg.RemoteDir == "" {
		cfg.RemoteDir = "/"
	}
	hostKey := ssh.InsecureIgnoreHostKey()
	if cfg.KnownHostsFile != "" {
		cb, err := knownhosts.New(cfg.KnownHostsFile)
		if err != nil {
			return nil, fmt.Errorf("sftp: known hosts %s: %w", cfg.KnownHostsFile, err)
		}
		hostKey = cb
	} else {
		logger.Warn("SFTP host key verification disabled (SFTP_KNOWN_HOSTS not set)")
	}
	return &SFTPUploader{cfg: cfg, hostKey: hostKey, logger: logger}, nil
}

// RemotePath is where a local file ends up
func (u *SFTPUploader) RemotePath(localPath string) string {
	return path.Join(u.cfg.RemoteDir, filepath.Base(localPath))
}

// Upload copies localPath into the remote directory under the same file name
func (u *SFTPUploader) Upload(ctx context.Context, localPath string) error {
	sshCfg := &ssh.ClientConfig{
		User:            u.cfg.User,
		Auth:            []ssh.AuthMethod{ssh.Password(u.cfg.Pass)},
		HostKeyCallback: u.hostKey,
		Timeout:         20 * time.Second,
	}
	addr := fmt.Sprintf("%s:%d", u.cfg.Host, u.cfg.Port)

	type dialRes struct {
		client *ssh.Client
		err    error
	}
	ch := make(chan dialRes, 1)
	go func() {
		c, err := ssh.Dial("tcp", addr, sshCfg)
		ch <- dialRes{client: c, err: err}
	}()

	var sshClient *ssh.Client
	select {
	case <-ctx.Done():
		go func() {
			if r := <-ch; r.client != nil {
				_ = r.client.Close()
			}
		}()
		return fmt.Errorf("sftp: dial canceled: %w", ctx.Err())
	case r := <-ch:
		if r.err != nil {
			return fmt.Errorf("sftp: dial error: %w", r.err)
		}
		sshClient = r.client
	}
	defer sshClient.Close()

	sftpCli, err := sftp.NewClient(sshClient)
	if err != nil {
		return fmt.Errorf("sftp: new client: %w", err)
	}
	defer sftpCli.Close()

	if err := sftpCli.MkdirAll(u.cfg.RemoteDir); err != nil {
		return fmt.Errorf("sftp: mkdir %s: %w", u.cfg.RemoteDir, err)
	}

	src, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("sftp: open local file: %w", err)
	}
	defer src.Close()

	remotePath := u.RemotePath(localPath)
	dst, err := sftpCli.Create(remotePath)
	if err != nil {
		return fmt.Errorf("sftp: create remote file: %w", err)
	}
	defer dst.Close()

	n, err := io.Copy(dst, src)
	if err != nil {
		return fmt.Errorf("sftp: upload copy: %w", err)
	}

	u.logger.Info("Uploaded %s to %s:%s (%d bytes)", localPath, u.cfg.Host, remotePath, n)
	return nil
}
