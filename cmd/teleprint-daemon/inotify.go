// Copyright 2026 The Teleprint Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/sys/unix"
)

// watchFile watches a directory for changes landing on a named file
// via inotify: direct writes, or the save-to-temp-and-rename dance
// editors do. Signals coalesce into the returned channel, so a burst
// of events costs one reload. The stop function releases the watch
// and is safe to call more than once.
//
// Watching the directory rather than the file keeps the watch alive
// across renames, which replace the file's inode.
func watchFile(directory, filename string) (<-chan struct{}, func(), error) {
	fd, err := unix.InotifyInit1(unix.IN_NONBLOCK | unix.IN_CLOEXEC)
	if err != nil {
		return nil, nil, fmt.Errorf("inotify_init1: %w", err)
	}

	_, err = unix.InotifyAddWatch(fd, directory, unix.IN_CLOSE_WRITE|unix.IN_MOVED_TO|unix.IN_CREATE)
	if err != nil {
		unix.Close(fd)
		return nil, nil, fmt.Errorf("inotify_add_watch on %s: %w", directory, err)
	}

	changes := make(chan struct{}, 1)
	stopChannel := make(chan struct{})

	go notifyLoop(fd, filename, changes, stopChannel)

	stopped := false
	stop := func() {
		if stopped {
			return
		}
		stopped = true
		close(stopChannel)
	}

	return changes, stop, nil
}

// notifyLoop polls the inotify fd and forwards matching events.
// poll(2) with a 100ms timeout keeps the goroutine responsive to the
// stop signal without spinning. The fd closes when the loop exits.
func notifyLoop(fd int, targetFilename string, changes chan<- struct{}, stopChannel <-chan struct{}) {
	defer unix.Close(fd)

	buffer := make([]byte, 4096)
	for {
		select {
		case <-stopChannel:
			return
		default:
		}

		pollDescriptors := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
		count, err := unix.Poll(pollDescriptors, 100)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return
		}
		if count == 0 {
			continue
		}

		bytesRead, err := unix.Read(fd, buffer)
		if err != nil {
			if err == unix.EAGAIN || err == unix.EINTR {
				continue
			}
			return
		}

		if eventsContainFilename(buffer[:bytesRead], targetFilename) {
			select {
			case changes <- struct{}{}:
			default:
			}
		}
	}
}

// eventsContainFilename scans raw inotify events for one naming the
// target file.
//
// Event layout, from inotify(7):
//
//	struct inotify_event {
//	    int32_t  wd;     // offset 0
//	    uint32_t mask;   // offset 4
//	    uint32_t cookie; // offset 8
//	    uint32_t len;    // offset 12
//	    char     name[]; // offset 16, null-padded to alignment
//	};
func eventsContainFilename(buffer []byte, targetFilename string) bool {
	offset := 0
	for offset+unix.SizeofInotifyEvent <= len(buffer) {
		nameLength := int(binary.NativeEndian.Uint32(buffer[offset+12 : offset+16]))
		eventSize := unix.SizeofInotifyEvent + nameLength
		if offset+eventSize > len(buffer) {
			break
		}

		if nameLength > 0 {
			nameBytes := buffer[offset+unix.SizeofInotifyEvent : offset+eventSize]
			if nullTerminatedString(nameBytes) == targetFilename {
				return true
			}
		}

		offset += eventSize
	}
	return false
}

// nullTerminatedString cuts a null-padded byte slice at the first
// null.
func nullTerminatedString(data []byte) string {
	for i, b := range data {
		if b == 0 {
			return string(data[:i])
		}
	}
	return string(data)
}
