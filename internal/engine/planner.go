package engine

import (
	"fmt"
	"strings"

	"github.com/bamsammich/devfs/internal/vfs"
)

// Plan is the classified form of a Request.
type Plan struct {
	DstDir string
	// Rename is the new name of the single selected object, or "".
	Rename string
	// FastPath is set when sources may be moved with server-side renames.
	FastPath bool
}

// dstName returns the destination name of the selected object name.
func (p Plan) dstName(name string) string {
	if p.Rename != "" {
		return p.Rename
	}
	return name
}

// dstRel maps a path relative to the source directory to one relative to
// DstDir. Only the first segment is subject to renaming.
func (p Plan) dstRel(rel string) string {
	if p.Rename == "" {
		return rel
	}
	if i := strings.IndexByte(rel, vfs.Separator); i >= 0 {
		return p.Rename + rel[i:]
	}
	return p.Rename
}

// PlanTransfer validates req and decides where its objects go. It only reads
// from the filesystems.
func PlanTransfer(tc *TransferContext, req Request) (Plan, error) {
	if len(req.Names) == 0 {
		return Plan{}, ErrNothingSelected
	}
	for _, name := range req.Names {
		if err := checkName(name); err != nil {
			return Plan{}, err
		}
	}
	if strings.TrimSpace(req.DstExpr) == "" {
		return Plan{}, fmt.Errorf("%w: empty destination", ErrInvalidDestination)
	}

	dst := req.DstExpr
	if !vfs.IsAbs(dst) {
		dst = vfs.Join(vfs.Clean(req.DstCwd), dst)
	}
	dir, rename, err := ResolveDestination(tc.Dst, len(req.Names), dst)
	if err != nil {
		return Plan{}, err
	}
	if rename != "" {
		if err := checkName(rename); err != nil {
			return Plan{}, fmt.Errorf("%w: %w", ErrInvalidDestination, err)
		}
	}
	plan := Plan{
		DstDir:   dir,
		Rename:   rename,
		FastPath: req.Move && vfs.SameRemote(tc.Src, tc.Dst),
	}

	if sameFileSystem(tc.Src, tc.Dst) {
		if err := checkSelfTransfer(tc, req, plan); err != nil {
			return Plan{}, err
		}
	}
	return plan, nil
}

// checkSelfTransfer compares case-corrected source and destination paths of
// every selected object.
func checkSelfTransfer(tc *TransferContext, req Request, plan Plan) error {
	dstDir := CaseCorrect(tc.Dst, plan.DstDir)
	srcDir := vfs.Clean(req.SrcDir)
	for _, name := range req.Names {
		src := CaseCorrect(tc.Src, vfs.Join(srcDir, name))
		dst := CaseCorrect(tc.Dst, vfs.Join(dstDir, plan.dstName(name)))
		if dst == src || strings.HasPrefix(dst, src+"/") {
			return fmt.Errorf("%w: %s", ErrSelfTransfer, vfs.Join(srcDir, name))
		}
	}
	return nil
}

// sameFileSystem reports whether a and b reach the same objects. Remote
// filesystems are the same only as one session; two sessions may share a
// root path on different devices.
func sameFileSystem(a, b vfs.FileSystem) bool {
	if a == b {
		return true
	}
	if a.Kind() != vfs.Local || b.Kind() != vfs.Local {
		return false
	}
	return a.Root() == b.Root()
}

func checkName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
