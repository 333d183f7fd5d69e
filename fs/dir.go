package fs

import "strings"

// Mkdir creates an empty directory at path. The parent must already exist;
// Mkdir does not create ancestors recursively.
func (sb *Superblock) Mkdir(path string) error {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	parentPath, name, err := splitParent(path)
	if err != nil {
		return err
	}
	parentHead, err := sb.resolveDir(parentPath)
	if err != nil {
		return err
	}

	if _, err := sb.findInDir(parentHead, name); err == nil {
		return ErrExists
	} else if !isNotFound(err) {
		return err
	}

	nodeInfoBlock, err := sb.getBlockLocked()
	if err != nil {
		return err
	}
	headBlock, err := sb.getBlockLocked()
	if err != nil {
		_ = sb.putBlockLocked(nodeInfoBlock)
		return err
	}

	if err := sb.writeNodeInfo(nodeInfoBlock, nodeInfo{Size: 0, Name: name}); err != nil {
		return err
	}

	dirInode := newInode(sb.blockSize)
	dirInode.Mode = ModeDirectory
	dirInode.Parent = headBlock
	dirInode.Meta = nodeInfoBlock
	if err := sb.writeInode(headBlock, dirInode); err != nil {
		return err
	}

	if err := sb.appendLink(parentHead, headBlock); err != nil {
		return err
	}
	return sb.bumpDirSize(parentHead, 1)
}

// Rmdir removes the empty directory at path.
func (sb *Superblock) Rmdir(path string) error {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	entry, err := sb.resolve(path)
	if err != nil {
		return err
	}
	if entry.mode != ModeDirectory {
		return ErrNotDirectory
	}

	info, err := sb.readNodeInfo(entry.nodeInfoBlock)
	if err != nil {
		return err
	}
	if info.Size != 0 {
		return ErrNotEmpty
	}

	if err := sb.freeChain(entry.headBlock); err != nil {
		return err
	}
	if err := sb.putBlockLocked(entry.nodeInfoBlock); err != nil {
		return err
	}
	if err := sb.removeLink(entry.parentLinkBlock, entry.parentLinkIndex); err != nil {
		return err
	}

	parentHead, _, err := sb.parentOf(path)
	if err != nil {
		return err
	}
	return sb.bumpDirSize(parentHead, -1)
}

// NodeInfo is the public metadata view of a named object.
type NodeInfo struct {
	Name      string
	Size      uint64
	Directory bool
}

// Stat resolves path and returns its metadata.
func (sb *Superblock) Stat(path string) (NodeInfo, error) {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	entry, err := sb.resolve(path)
	if err != nil {
		return NodeInfo{}, err
	}
	info, err := sb.readNodeInfo(entry.nodeInfoBlock)
	if err != nil {
		return NodeInfo{}, err
	}
	return NodeInfo{Name: info.Name, Size: info.Size, Directory: entry.mode == ModeDirectory}, nil
}

// ListDir lists the entries of the directory at path, directory names
// suffixed with "/", space-separated. It returns the literal string "-1" if
// path doesn't resolve to a directory.
func (sb *Superblock) ListDir(path string) string {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	entry, err := sb.resolve(path)
	if err != nil || entry.mode != ModeDirectory {
		return "-1"
	}

	names, err := sb.listDirLocked(entry.headBlock)
	if err != nil {
		return "-1"
	}
	return strings.Join(names, " ")
}

func (sb *Superblock) listDirLocked(dirHead uint32) ([]string, error) {
	capacity := linkCapacity(sb.blockSize)
	var names []string
	block := dirHead
	for block != 0 {
		in, err := sb.readInode(block)
		if err != nil {
			return nil, err
		}
		for i := 0; i < capacity; i++ {
			link := in.link(i)
			if link == 0 {
				continue
			}
			target, err := sb.readInode(link)
			if err != nil {
				return nil, err
			}
			head, headInode := link, target
			if target.Mode == ModeChild {
				head = target.Parent
				headInode, err = sb.readInode(head)
				if err != nil {
					return nil, err
				}
			}
			info, err := sb.readNodeInfo(headInode.Meta)
			if err != nil {
				return nil, err
			}
			name := info.Name
			if headInode.Mode == ModeDirectory {
				name += "/"
			}
			names = append(names, name)
		}
		block = in.Next
	}
	return names, nil
}

// Walk calls fn for path and, if path is a directory, recursively for every
// entry beneath it, depth-first. fn receives each object's full path and
// metadata. Walking stops and returns fn's error as soon as fn returns one.
func (sb *Superblock) Walk(path string, fn func(path string, info NodeInfo) error) error {
	info, err := sb.Stat(path)
	if err != nil {
		return err
	}
	if err := fn(path, info); err != nil {
		return err
	}
	if !info.Directory {
		return nil
	}

	sb.mu.Lock()
	entry, err := sb.resolve(path)
	if err != nil {
		sb.mu.Unlock()
		return err
	}
	names, err := sb.listDirLocked(entry.headBlock)
	sb.mu.Unlock()
	if err != nil {
		return err
	}

	base := strings.TrimSuffix(path, "/")
	for _, name := range names {
		childName := strings.TrimSuffix(name, "/")
		childPath := base + "/" + childName
		if base == "" {
			childPath = "/" + childName
		}
		if err := sb.Walk(childPath, fn); err != nil {
			return err
		}
	}
	return nil
}
