package fs

import (
	"fmt"
	"strings"
)

// dirEntry identifies one named object reachable from a directory: the
// block of its chain's head inode, its nodeinfo block, its mode, and where
// in its parent's links the reference to it lives (for removal).
type dirEntry struct {
	headBlock       uint32
	nodeInfoBlock   uint32
	mode            uint32
	parentLinkBlock uint32
	parentLinkIndex int
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

// splitParent divides an absolute path into its parent directory path and
// final component name.
func splitParent(path string) (parentPath, name string, err error) {
	comps := splitPath(path)
	if len(comps) == 0 {
		return "", "", fmt.Errorf("fs: invalid path %q", path)
	}
	name = comps[len(comps)-1]
	parentPath = "/" + strings.Join(comps[:len(comps)-1], "/")
	return parentPath, name, nil
}

// findInDir scans dirHead's chain for an entry named name, following a
// directory's own continuation inodes via Next and, for each link entry,
// jumping from a "child" inode to its chain's head via Parent before
// comparing names against the head's nodeinfo.
func (sb *Superblock) findInDir(dirHead uint32, name string) (dirEntry, error) {
	capacity := linkCapacity(sb.blockSize)
	block := dirHead
	for block != 0 {
		in, err := sb.readInode(block)
		if err != nil {
			return dirEntry{}, err
		}
		for i := 0; i < capacity; i++ {
			link := in.link(i)
			if link == 0 {
				continue
			}
			target, err := sb.readInode(link)
			if err != nil {
				return dirEntry{}, err
			}
			head := link
			headInode := target
			if target.Mode == ModeChild {
				head = target.Parent
				headInode, err = sb.readInode(head)
				if err != nil {
					return dirEntry{}, err
				}
			}
			info, err := sb.readNodeInfo(headInode.Meta)
			if err != nil {
				return dirEntry{}, err
			}
			if info.Name == name {
				return dirEntry{
					headBlock:       head,
					nodeInfoBlock:   headInode.Meta,
					mode:            headInode.Mode,
					parentLinkBlock: block,
					parentLinkIndex: i,
				}, nil
			}
		}
		block = in.Next
	}
	return dirEntry{}, ErrNotFound
}

// resolve walks path to the object it names, root included.
func (sb *Superblock) resolve(path string) (dirEntry, error) {
	comps := splitPath(path)
	if len(comps) == 0 {
		return dirEntry{headBlock: RootInodeBlock, nodeInfoBlock: RootNodeInfoBlock, mode: ModeDirectory}, nil
	}
	cur := RootInodeBlock
	var entry dirEntry
	for i, c := range comps {
		e, err := sb.findInDir(cur, c)
		if err != nil {
			return dirEntry{}, err
		}
		if i != len(comps)-1 {
			if e.mode != ModeDirectory {
				return dirEntry{}, ErrNotDirectory
			}
			cur = e.headBlock
		}
		entry = e
	}
	return entry, nil
}

// resolveDir walks path to a directory's head inode block. An empty path
// resolves to root.
func (sb *Superblock) resolveDir(path string) (uint32, error) {
	comps := splitPath(path)
	cur := RootInodeBlock
	for _, c := range comps {
		e, err := sb.findInDir(cur, c)
		if err != nil {
			return 0, err
		}
		if e.mode != ModeDirectory {
			return 0, ErrNotDirectory
		}
		cur = e.headBlock
	}
	return cur, nil
}

// appendLink finds the first free link slot in dirHead's chain, adding a new
// continuation inode if every existing one is full, and writes block into
// it.
func (sb *Superblock) appendLink(dirHead uint32, block uint32) error {
	capacity := linkCapacity(sb.blockSize)
	cur := dirHead
	var last inode
	var lastBlock uint32
	for {
		in, err := sb.readInode(cur)
		if err != nil {
			return err
		}
		for i := 0; i < capacity; i++ {
			if in.link(i) == 0 {
				in.setLink(i, block)
				return sb.writeInode(cur, in)
			}
		}
		last, lastBlock = in, cur
		if in.Next == 0 {
			break
		}
		cur = in.Next
	}

	newBlock, err := sb.getBlockLocked()
	if err != nil {
		return err
	}
	cont := newInode(sb.blockSize)
	cont.Mode = ModeChild
	cont.Parent = dirHead
	cont.setLink(0, block)
	if err := sb.writeInode(newBlock, cont); err != nil {
		return err
	}
	last.Next = newBlock
	return sb.writeInode(lastBlock, last)
}

// removeLink clears the link entry at (linkBlock, linkIndex), the inverse of
// appendLink, preserving the order of remaining entries within that inode
// (entries are cleared in place, not compacted, since link slots are
// independently addressed by index and compaction isn't required by any
// invariant).
func (sb *Superblock) removeLink(linkBlock uint32, linkIndex int) error {
	in, err := sb.readInode(linkBlock)
	if err != nil {
		return err
	}
	in.setLink(linkIndex, 0)
	return sb.writeInode(linkBlock, in)
}
