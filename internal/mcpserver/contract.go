package mcpserver

// RuleFormatContract describes the rule file format that LLM consumers
// should follow when submitting migrations via plan_migration or
// apply_migration.
const RuleFormatContract = `# Raido Rule Format Contract

A rule set tells raido which header lines to insert into each document's
front matter. Submit it as YAML (inline via the ` + "`" + `rules_yaml` + "`" + ` argument, or
as a file passed to the CLI with ` + "`" + `--rules` + "`" + `).

## Structure

` + "```" + `yaml
rules:
  - field: redirect_to              # REQUIRED - the top-level key the block establishes
    lines:                          # REQUIRED - literal lines, inserted verbatim
      - "redirect_to:"
      - "  - https://example.com/{{slug}}"
` + "```" + `

## Rules

1. **The first line of every rule MUST start with ` + "`" + `<field>:` + "`" + `.** The field
   drives the idempotence check: documents already carrying the key are
   left untouched, so the inserted block has to establish exactly that key.
2. **Lines are inserted verbatim**, directly after the opening ` + "`" + `---` + "`" + ` marker.
   Indentation is part of the line; YAML list entries need their two leading
   spaces spelled out.
3. **` + "`" + `{{slug}}` + "`" + ` is the only template variable.** It expands to the document's
   slug: the filename with any leading ` + "`" + `YYYY-MM-DD-` + "`" + ` prefix and the extension
   stripped (` + "`" + `2014-01-30-change-data.md` + "`" + ` becomes ` + "`" + `change-data` + "`" + `).
4. **Rules apply in file order.** Each rule is checked and inserted
   independently; a document may receive some rules and skip others.
5. **Environment variables** in the form ` + "`" + `${VAR}` + "`" + ` are expanded when the rule
   set is loaded.
6. **Existing content is never modified.** Rules only insert lines; every
   pre-existing front-matter line and the whole body survive byte-for-byte.

## Example

Given ` + "`" + `posts/2014-01-30-change-data.md` + "`" + `:

` + "```" + `markdown
---
layout: post
title: "Changing your data"
---
` + "```" + `

the rule set above rewrites it to:

` + "```" + `markdown
---
redirect_to:
  - https://example.com/change-data
layout: post
title: "Changing your data"
---
` + "```" + `

Running the same migration again reports the document as unchanged.
`
