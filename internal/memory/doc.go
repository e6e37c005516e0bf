// Package memory sets the Go runtime's soft memory limit before an import.
//
// Decoding a large RAW file or a 100 megapixel panorama can briefly need a
// lot of memory, most of it outside the Go heap when libvips is used. In a
// container the process is killed rather than slowed down when it crosses
// its limit, so [Configure] gives the Go heap a share of the limit and
// leaves the rest to libvips and the conversion utility.
//
// # Environment Variables
//
//   - GOMEMLIMIT: Standard Go environment variable. If set, it is left alone
//     and takes precedence over everything else.
//
//   - CASKET_MEMORY_LIMIT: Memory available to casket, in bytes or with a
//     KiB, MiB, GiB or TiB suffix.
//
//   - CASKET_MEMORY_RATIO: Share of the limit given to the Go heap, between
//     0 and 1. Default is 0.75.
//
// Without either limit variable the cgroup v2 limit in
// /sys/fs/cgroup/memory.max is used when there is one.
package memory
