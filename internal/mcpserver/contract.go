package mcpserver

// FrontMatterContract describes the front matter that posts and resume
// sections must carry to be published.
const FrontMatterContract = `# Folio Front Matter Contract

Every post and resume section is a Markdown file that starts with a YAML
front matter block. Each upload creates a new Version stored as
` + "`" + `{root}/{name}_{YYYYMMDDHHMMSS}.md` + "`" + ` (UTC); readers always see the latest one.

## Posts

` + "```" + `markdown
---
title: Writing a tiny HTTP router   # REQUIRED
isPublished: true                   # REQUIRED to appear anywhere
createdAt: 2024-05-01               # REQUIRED, YYYY-MM-DD
updatedAt: 2024-05-03               # REQUIRED, YYYY-MM-DD
thumbnail: /images/router.png       # OPTIONAL, defaults to /images/pencil01.svg
version: 2                          # OPTIONAL, bump to republish, defaults to 1
---

Body text in GitHub-flavoured Markdown.
` + "```" + `

Rules:

1. A post without ` + "`" + `title` + "`" + ` fails the index build.
2. Posts with ` + "`" + `isPublished` + "`" + ` false or absent are skipped and never served.
3. Posts missing either date fail the index build and are not served.
4. Raising ` + "`" + `version` + "`" + ` above the last published value publishes a new Version
   when the index is built with ` + "`" + `--publish` + "`" + `.
5. The slug is the file name without ` + "`" + `.md` + "`" + `: letters, digits, ` + "`" + `.` + "`" + `, ` + "`" + `_` + "`" + `, ` + "`" + `-` + "`" + `.

## Resume sections

` + "```" + `markdown
---
title: Skills                       # REQUIRED
type: skills                        # REQUIRED: resume | career | skills
createdAt: 2024-01-01               # REQUIRED
updatedAt: 2024-06-01               # REQUIRED, rewritten to today on merge
---

![profile](./images/profile.png)
` + "```" + `

- Sections are displayed in the order resume, career, skills.
- Relative image paths are served through ` + "`" + `/api/proxy-image?path=...` + "`" + `.
- Images are uploaded with the ` + "`" + `upload_resume_image` + "`" + ` tool (png, jpg, jpeg,
  gif, webp, svg) and referenced as ` + "`" + `./images/{filename}` + "`" + `.
`
