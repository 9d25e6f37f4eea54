package fs

import (
	"fmt"
	"strings"
)

// parent reads the ".." entry. Files and the root have none.
func (i *Inode) parent() (*Inode, error) {
	di, err := i.load()
	if err != nil {
		return nil, err
	}
	if !di.IsDir() {
		return nil, fmt.Errorf("inode `%d` is a file: %w", i.Ino(), NotFoundErr)
	}
	ino, exists, err := i.fs.lookup(&di, dotdot)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("inode `%d` has no parent: %w", i.Ino(), NotFoundErr)
	}
	return i.fs.handle(ino), nil
}

func (i *Inode) Parent() (*Inode, error) {
	i.fs.mutex.Lock()
	defer i.fs.mutex.Unlock()
	parent, err := i.parent()
	if err != nil {
		return nil, fmt.Errorf("finding parent: %w", err)
	}
	return parent, nil
}

// name finds this inode's entry in its parent. The root is "/".
func (i *Inode) name() (string, error) {
	if i.IsRoot() {
		return "/", nil
	}
	parent, err := i.parent()
	if err != nil {
		return "", err
	}
	di, err := parent.load()
	if err != nil {
		return "", err
	}
	entries, err := i.fs.entries(&di)
	if err != nil {
		return "", err
	}
	ino := i.Ino()
	for _, entry := range entries {
		if entry.Name != dot && entry.Ino == ino {
			return entry.Name, nil
		}
	}
	return "", fmt.Errorf(
		"inode `%d` missing from parent `%d`: %w",
		ino,
		parent.Ino(),
		NotFoundErr,
	)
}

// Name returns the name this directory was created with.
func (i *Inode) Name() (string, error) {
	i.fs.mutex.Lock()
	defer i.fs.mutex.Unlock()
	name, err := i.name()
	if err != nil {
		return "", fmt.Errorf("naming inode `%d`: %w", i.Ino(), err)
	}
	return name, nil
}

// Cwd is this directory's absolute path.
func (i *Inode) Cwd() (string, error) {
	i.fs.mutex.Lock()
	defer i.fs.mutex.Unlock()

	var names []string
	for current := i; !current.IsRoot(); {
		name, err := current.name()
		if err != nil {
			return "", fmt.Errorf("resolving path of inode `%d`: %w", i.Ino(), err)
		}
		names = append(names, name)
		if current, err = current.parent(); err != nil {
			return "", fmt.Errorf("resolving path of inode `%d`: %w", i.Ino(), err)
		}
		if len(names) > int(i.fs.inodeBitmap.Limit) {
			panic(fmt.Sprintf("directory cycle above inode `%d`", i.Ino()))
		}
	}

	var sb strings.Builder
	for j := len(names) - 1; j >= 0; j-- {
		sb.WriteString("/")
		sb.WriteString(names[j])
	}
	if sb.Len() == 0 {
		return "/", nil
	}
	return sb.String(), nil
}
