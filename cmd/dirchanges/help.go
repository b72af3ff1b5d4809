package main

const longHelp = `Summarize differences between FROM and TO, where FROM and TO are directories,
archives, or listings of hashes as produced by --hash. Either one may be "-"
to read a listing or archive from standard input.

Changes are reported one per line, sorted by name:

     Added path     present in TO only
   Removed path     present in FROM only
  Modified path     content or type differs

--within restricts a source to the entries below a directory and compares
them by their path relative to it. Use it once for FROM and a second time
(or --within-to) for TO. The binding follows the order of the --within
options, not where they appear among FROM and TO: in "dirchanges A B -w x"
the single --within still applies to A. Use --within-to to restrict only TO.

Archives may be tar or zip, optionally compressed with gzip, bzip2, zstd or
lz4. Listings start with a DIRHASH2 (sha256) or DIRHASH3 (blake3) header.
When FROM is a listing, TO is hashed with the listing's algorithm unless
--algorithm is given.

Defaults for --short, --verbose, --algorithm, --bwlimit and --color can be
set in $XDG_CONFIG_HOME/dirchanges/config.toml.`
