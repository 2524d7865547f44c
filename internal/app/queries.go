package app

import linear "github.com/eugener/linear/internal"

// Ids are always bound as variables so that the query text, and with it the
// cache key prefix, is identical across entities.

const issueFields = `
			id
			identifier
			title
			createdAt
			description
			url
			state {
				id
				name
				type
			}`

const assigneeFields = `
			assignee {
				id
				name
				email
			}`

const meQuery = `query Me {
	viewer {
		id
		name
		email
		teamMemberships {
			nodes {
				team {
					id
					name
				}
			}
		}
		assignedIssues {
			nodes {` + issueFields + `
			}
		}
	}
}`

const issueQuery = `query Issue($id: String!) {
	issue(id: $id) {` + issueFields + assigneeFields + `
		comments {
			nodes {
				id
				body
				createdAt
				user {
					name
				}
				parent {
					id
				}
			}
		}
		attachments {
			nodes {
				id
				title
				url
				sourceType
			}
		}
		children {
			nodes {` + issueFields + assigneeFields + `
			}
		}
	}
}`

const teamQuery = `query Team($id: String!) {
	team(id: $id) {
		id
		name
		issues {
			nodes {` + issueFields + assigneeFields + `
			}
		}
	}
}`

// MeRequest fetches the viewer with team memberships and assigned issues.
func MeRequest() linear.Request {
	return linear.Request{OperationName: "Me", Query: meQuery}
}

// IssueRequest fetches one issue by id or identifier (e.g. ENG-123) with
// comments, attachments and sub-issues.
func IssueRequest(id string) linear.Request {
	return linear.Request{
		OperationName: "Issue",
		Query:         issueQuery,
		Variables:     map[string]any{"id": id},
	}
}

// TeamRequest fetches a team and its issues.
func TeamRequest(id string) linear.Request {
	return linear.Request{
		OperationName: "Team",
		Query:         teamQuery,
		Variables:     map[string]any{"id": id},
	}
}
