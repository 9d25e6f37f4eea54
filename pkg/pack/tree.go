package pack

import (
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/weberc2/easyfs/pkg/fs"
	. "github.com/weberc2/easyfs/pkg/types"
)

// Tree prints the hierarchy below `root`, one name per line, indented two
// spaces per level. Directories end with "/".
func Tree(w io.Writer, root *fs.Inode) error {
	return fs.Walk(root, func(p string, _ *fs.Inode, di *DiskInode) error {
		if p == "/" {
			_, err := fmt.Fprintln(w, "/")
			return err
		}
		depth := strings.Count(p, "/") - 1
		suffix := ""
		if di.IsDir() {
			suffix = "/"
		}
		_, err := fmt.Fprintf(
			w,
			"%s%s%s\n",
			strings.Repeat("  ", depth+1),
			path.Base(p),
			suffix,
		)
		return err
	})
}
