package hostenv

import "testing"

func TestNoExecMountinfoLongestMatchWins(t *testing.T) {
	content := `36 25 0:32 / / rw,relatime - overlay overlay rw,noexec
40 36 0:45 / /home rw,relatime - ext4 /dev/sda rw
41 40 0:46 / /home/user rw,relatime - ext4 /dev/sda rw,noexec
`

	mounts := parseMountinfo(content)
	if len(mounts) != 3 {
		t.Fatalf("expected 3 mounts, got %d", len(mounts))
	}

	if !noExecCovering("/tmp/bin", mounts) {
		t.Fatal("expected /tmp/bin to inherit / noexec")
	}
	if noExecCovering("/home/other/bin", mounts) {
		t.Fatal("expected /home/other/bin to be exec")
	}
	if !noExecCovering("/home/user/bin", mounts) {
		t.Fatal("expected /home/user/bin to be noexec (longest match)")
	}
}

func TestNoExecProcMounts(t *testing.T) {
	content := `/dev/sda1 / ext4 rw,relatime,noexec 0 0
/dev/sda2 /home ext4 rw,relatime 0 0
tmpfs /tmp tmpfs rw,nosuid,nodev,noexec 0 0
`
	mounts := parseProcMounts(content)
	if len(mounts) != 3 {
		t.Fatalf("expected 3 mounts, got %d", len(mounts))
	}

	if !noExecCovering("/tmp/foo", mounts) {
		t.Fatal("expected /tmp/foo to be noexec")
	}
	if noExecCovering("/home/user/bin", mounts) {
		t.Fatal("expected /home/user/bin to be exec")
	}
	if !noExecCovering("/bin", mounts) {
		t.Fatal("expected /bin to inherit / noexec")
	}
}

func TestUnescapeMountPath(t *testing.T) {
	content := `1 2 3:4 / /path\040with\040space rw,relatime - ext4 /dev/sda rw,noexec
`
	mounts := parseMountinfo(content)
	if len(mounts) != 1 {
		t.Fatalf("expected 1 mount, got %d", len(mounts))
	}
	if got := mounts[0].point; got != "/path with space" {
		t.Fatalf("mount point unescape: got %q", got)
	}
	if !noExecCovering("/path with space/bin", mounts) {
		t.Fatal("expected /path with space/bin to be noexec")
	}
}

func TestNoExecEmptyInput(t *testing.T) {
	if noExecCovering("/tmp", nil) {
		t.Fatal("expected false for no mounts")
	}
	if noExecCovering("/tmp", parseMountinfo("garbage")) {
		t.Fatal("expected false for unparseable input")
	}
}
